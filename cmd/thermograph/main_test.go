package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Agrid-Dev/thermograph/cmd/app"
)

const solarLoop = "../../configs/solar_loop.yaml"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("version output = %q, want it to contain %q", out, version)
	}
}

func TestValidateCmd(t *testing.T) {
	out, errOut, err := execute(t, "validate", solarLoop)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "name: solar-loop") {
		t.Errorf("expected normalized yaml on stdout, got %q", out)
	}
	if !strings.Contains(errOut, "ok (10 components, 2 boundaries, 15 edges)") {
		t.Errorf("unexpected summary %q", errOut)
	}
}

func TestValidateCmd_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	body := `
name: bad
components:
  - {id: a, material: unobtainium, volume: 1, initial_temperature: 300}
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := execute(t, "validate", "-q", path); err == nil {
		t.Fatal("expected validation failure for unknown material")
	}
}

func TestRunCmd_ExportsCSVAndSQLite(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "thermograph.yaml")
	body := "run_id: test-run\nexport:\n  sqlite_path: " + filepath.Join(dir, "runs.db") + "\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")

	stdout, _, err := execute(t, "run", "--config", cfgPath, "--duration", "10m", "--out", out, solarLoop)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "run test-run: 10 steps, 600 s simulated") {
		t.Errorf("unexpected run summary %q", stdout)
	}

	files, err := filepath.Glob(filepath.Join(out, "*.csv"))
	if err != nil {
		t.Fatal(err)
	}
	// results.csv plus one file per stepped node
	if len(files) != 11 {
		t.Fatalf("expected 11 csv files, got %d: %v", len(files), files)
	}
	if _, err := os.Stat(filepath.Join(out, "solar_panel.csv")); err != nil {
		t.Errorf("expected per-node file for 'solar panel': %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "runs.db")); err != nil {
		t.Errorf("expected sqlite database: %v", err)
	}
}

func TestControllers(t *testing.T) {
	cfg := app.Default()
	cfg.RunID = "loop1"

	ctrls, err := controllers(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(ctrls) != 1 {
		t.Fatalf("expected only the http controller by default, got %d", len(ctrls))
	}

	cfg.Controllers.MQTT.Enabled = true
	cfg.Controllers.Modbus.Enabled = true
	ctrls, err = controllers(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(ctrls) != 3 {
		t.Fatalf("expected 3 controllers, got %d", len(ctrls))
	}

	cfg.Controllers.Modbus.UnitID = 0
	if _, err := controllers(cfg, nil); err == nil {
		t.Fatal("expected error for modbus unit id 0")
	}
}
