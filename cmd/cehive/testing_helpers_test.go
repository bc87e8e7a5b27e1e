package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cehive/hive/values"
	"github.com/joshuapare/cehive/internal/format"
	"github.com/joshuapare/cehive/internal/testutil/ce7"
)

// sampleRoots builds a small device hive; version varies the Ident value.
func sampleRoots(version string) ce7.Roots {
	build := make([]byte, 4)
	binary.LittleEndian.PutUint32(build, 1700)

	var r ce7.Roots
	r[1] = &ce7.Key{Values: []*ce7.Value{
		{Name: "Theme", Type: uint16(values.String), Data: ce7.UTF16Z("dark")},
	}}
	r[2] = &ce7.Key{Children: []*ce7.Key{
		{
			Name: "Ident",
			Values: []*ce7.Value{
				{Name: "Name", Type: uint16(values.String), Data: ce7.UTF16Z("WindowsCE")},
				{Name: "Version", Type: uint16(values.String), Data: ce7.UTF16Z(version)},
				{Name: "Build", Type: uint16(values.DWord), Data: build},
				{Name: "", Type: uint16(values.String), Data: ce7.UTF16Z("default")},
			},
		},
		{
			Name: "Drivers",
			Children: []*ce7.Key{
				{Name: "BuiltIn", Values: []*ce7.Value{
					{Name: "Dll", Type: uint16(values.String), Data: ce7.UTF16Z("serial.dll")},
				}},
			},
		},
	}}
	return r
}

func writeHive(t *testing.T, name string, data []byte) string {
	t.Helper()
	return ce7.WriteFile(t, name, data)
}

func sampleHivePath(t *testing.T) string {
	t.Helper()
	return writeHive(t, "system.hv", ce7.Encode(sampleRoots("7.0")))
}

// cyclicHivePath writes a hive whose only HKLM key lists itself as a child.
func cyclicHivePath(t *testing.T) string {
	t.Helper()
	b := ce7.New()
	k := b.Reserve()
	b.Set(k, format.EntryKey, ce7.KeyPayload(0, k, 0, 0, "Loop"))
	var ids [format.RootsSlotCount]uint32
	ids[2] = k
	b.Add(format.EntryRoots, ce7.RootsPayload(ids))
	return writeHive(t, "cyclic.hv", b.Bytes())
}

// run executes the CLI with colors disabled and returns stdout, stderr
// and the exit code.
func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(append([]string{"--no-color"}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

// assertJSON checks that output is valid JSON and decodes it.
func assertJSON(t *testing.T, output string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(output), v), "invalid JSON output:\n%s", output)
}
