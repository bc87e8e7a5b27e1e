// Command cehive inspects Windows CE 7 registry hive files.
package main

import "os"

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
