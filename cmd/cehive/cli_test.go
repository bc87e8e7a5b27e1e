package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/cehive/internal/testutil/ce7"
)

func TestTreeCommand(t *testing.T) {
	path := sampleHivePath(t)

	tests := []struct {
		name           string
		args           []string
		wantContain    []string
		wantNotContain []string
	}{
		{
			name:        "whole tree",
			args:        []string{"tree", path},
			wantContain: []string{"[HKCU]", "[HKLM]", "[Ident]", "[BuiltIn]"},
		},
		{
			name:           "depth limit",
			args:           []string{"tree", path, "--depth", "2"},
			wantContain:    []string{"[HKLM]"},
			wantNotContain: []string{"[Ident]"},
		},
		{
			name:           "subtree with values",
			args:           []string{"tree", path, `HKLM\Drivers`, "--values"},
			wantContain:    []string{"[Drivers]", "[BuiltIn]", `"Dll" [REG_SZ] = "serial.dll"`},
			wantNotContain: []string{"[Ident]"},
		},
		{
			name:        "forward slashes and case",
			args:        []string{"tree", path, "hklm/drivers/builtin"},
			wantContain: []string{"[BuiltIn]"},
		},
		{
			name:        "json",
			args:        []string{"tree", path, "HKLM", "--json"},
			wantContain: []string{`"name": "HKLM"`, `"name": "Ident"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, stderr, code := run(t, tt.args...)
			require.Equal(t, 0, code, stderr)
			for _, want := range tt.wantContain {
				require.Contains(t, out, want)
			}
			for _, dont := range tt.wantNotContain {
				require.NotContains(t, out, dont)
			}
		})
	}
}

func TestTreeDepthFromEnvironment(t *testing.T) {
	t.Setenv("CEHIVE_TREE_DEPTH", "2")
	out, _, code := run(t, "tree", sampleHivePath(t))
	require.Equal(t, 0, code)
	require.Contains(t, out, "[HKLM]")
	require.NotContains(t, out, "[Ident]")
}

func TestTreeMissingKey(t *testing.T) {
	_, stderr, code := run(t, "tree", sampleHivePath(t), `HKLM\Nope`)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, `key not found: HKLM\Nope`)
}

func TestDumpCommand(t *testing.T) {
	path := sampleHivePath(t)

	out, _, code := run(t, "dump", path)
	require.Equal(t, 0, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Equal(t, []string{
		`/HKCU/Theme [REG_SZ] = "dark"`,
		`/HKLM/Drivers/BuiltIn/Dll [REG_SZ] = "serial.dll"`,
		`/HKLM/Ident/ [REG_SZ] = "default"`,
		`/HKLM/Ident/Build [REG_DWORD] = 0x000006A4 (1700)`,
		`/HKLM/Ident/Name [REG_SZ] = "WindowsCE"`,
		`/HKLM/Ident/Version [REG_SZ] = "7.0"`,
	}, lines)

	out, _, code = run(t, "dump", path, `HKLM\Ident`, "--format", "reg")
	require.Equal(t, 0, code)
	require.True(t, strings.HasPrefix(out, "Windows Registry Editor Version 5.00"))
	require.Contains(t, out, `[HKEY_LOCAL_MACHINE\Ident]`)
	require.Contains(t, out, `"Build"=dword:000006a4`)
	require.Contains(t, out, `@="default"`)

	_, stderr, code := run(t, "dump", path, "--format", "yaml")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "unknown format")
}

func TestGetCommand(t *testing.T) {
	path := sampleHivePath(t)

	out, _, code := run(t, "get", path, `HKLM\Ident`, "Name")
	require.Equal(t, 0, code)
	require.Equal(t, "WindowsCE\n", out)

	out, _, code = run(t, "get", path, `HKLM\Ident`, "build", "--type")
	require.Equal(t, 0, code)
	require.Equal(t, "[REG_DWORD] 0x000006A4 (1700)\n", out)

	out, _, code = run(t, "get", path, `HKLM\Ident`, "(Default)")
	require.Equal(t, 0, code)
	require.Equal(t, "default\n", out)

	out, _, code = run(t, "get", path, `HKLM\Ident`, "Version", "--json")
	require.Equal(t, 0, code)
	var v struct {
		Type string `json:"type"`
		Data string `json:"data"`
	}
	assertJSON(t, out, &v)
	require.Equal(t, "REG_SZ", v.Type)
	require.Equal(t, "7.0", v.Data)

	_, stderr, code := run(t, "get", path, `HKLM\Ident`, "Missing")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "value not found")
}

func TestInfoCommand(t *testing.T) {
	path := sampleHivePath(t)

	out, _, code := run(t, "info", path)
	require.Equal(t, 0, code)
	require.Contains(t, out, "Version: 0x1000")
	require.Contains(t, out, "Keys: 6")
	require.Contains(t, out, "No anomalies")

	out, _, code = run(t, "info", path, "--json")
	require.Equal(t, 0, code)
	var info hiveInfo
	assertJSON(t, out, &info)
	require.True(t, info.RegistryHive)
	require.Equal(t, 6, info.Keys)
	require.Equal(t, 6, info.Values)
	require.Zero(t, info.Anomalies)
	require.NotEmpty(t, info.RootOffset)
}

func TestInfoRejectsNonHive(t *testing.T) {
	path := writeHive(t, "junk.bin", []byte("definitely not a hive"))
	_, stderr, code := run(t, "info", path)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "not a CE7 registry hive")
}

func TestDiagnoseCommand(t *testing.T) {
	clean := sampleHivePath(t)
	out, _, code := run(t, "diagnose", clean, "--fail")
	require.Equal(t, 0, code)
	require.Contains(t, out, "No anomalies found")

	cyclic := cyclicHivePath(t)
	out, _, code = run(t, "diagnose", cyclic)
	require.Equal(t, 0, code)
	require.Contains(t, out, "CycleDetected")
	require.Contains(t, out, `[key HKLM\Loop]`)

	out, _, code = run(t, "diagnose", cyclic, "--format", "compact")
	require.Equal(t, 0, code)
	require.Equal(t, 1, strings.Count(out, "\n"))

	out, _, code = run(t, "diagnose", cyclic, "--json")
	require.Equal(t, 0, code)
	var d diagnosis
	assertJSON(t, out, &d)
	require.Equal(t, 1, d.Summary["CycleDetected"])

	_, stderr, code := run(t, "diagnose", cyclic, "--fail")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "1 anomalies found")
}

func TestDiagnoseOutputFile(t *testing.T) {
	report := filepath.Join(t.TempDir(), "report.txt")
	out, _, code := run(t, "diagnose", cyclicHivePath(t), "-o", report)
	require.Equal(t, 0, code)
	require.Contains(t, out, "Report written to")
}

func TestValidateCommand(t *testing.T) {
	out, _, code := run(t, "validate", sampleHivePath(t))
	require.Equal(t, 0, code)
	require.Contains(t, out, "Hive is valid")

	data := ce7.Encode(sampleRoots("7.0"))
	data[0x08] = 'X'
	bad := writeHive(t, "bad.hv", data)

	_, stderr, code := run(t, "validate", bad)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "validation failed")

	out, _, code = run(t, "validate", bad, "--json")
	require.Equal(t, 1, code)
	var res map[string]interface{}
	assertJSON(t, out, &res)
	require.Equal(t, false, res["valid"])
	require.Equal(t, "Header", res["check"])
}

func TestDiffCommand(t *testing.T) {
	oldPath := sampleHivePath(t)
	newPath := writeHive(t, "new.hv", ce7.Encode(sampleRoots("7.1")))

	out, _, code := run(t, "diff", oldPath, oldPath)
	require.Equal(t, 0, code)
	require.Equal(t, "No differences\n", out)

	out, _, code = run(t, "diff", oldPath, newPath)
	require.Equal(t, 0, code)
	require.Contains(t, out, `-/HKLM/Ident/Version [REG_SZ] = "7.0"`)
	require.Contains(t, out, `+/HKLM/Ident/Version [REG_SZ] = "7.1"`)

	out, _, code = run(t, "diff", oldPath, newPath, "--stat")
	require.Equal(t, 0, code)
	require.Equal(t, "1 added, 1 removed\n", out)
}

func TestQuietSuppressesInfo(t *testing.T) {
	out, _, code := run(t, "diff", sampleHivePath(t), sampleHivePath(t), "-q")
	require.Equal(t, 0, code)
	require.Empty(t, out)
}
