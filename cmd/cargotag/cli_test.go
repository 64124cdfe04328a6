package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cargotag/internal/api"
	"cargotag/internal/cargo"
	"cargotag/internal/payload"
	"cargotag/internal/services"
	"cargotag/internal/testsupport"
)

type cliEnv struct {
	configPath string
	outputDir  string
	stateDir   string
	baseDir    string
}

func setupCLIEnv(t *testing.T, extraTOML string) *cliEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("CARGOTAG_OUTPUT_DIR", "")
	env := &cliEnv{
		configPath: filepath.Join(base, "config.toml"),
		outputDir:  filepath.Join(base, "out"),
		stateDir:   filepath.Join(base, "state"),
		baseDir:    base,
	}
	content := "[paths]\n" +
		"output_dir = " + quote(env.outputDir) + "\n" +
		"state_dir = " + quote(env.stateDir) + "\n\n" +
		"[logging]\nlevel = \"error\"\n\n" +
		extraTOML
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func quote(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func runCLI(t *testing.T, env *cliEnv, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	flags := []string{}
	if env != nil {
		flags = append(flags, "--config", env.configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func writeInputs(t *testing.T, env *cliEnv) (string, string) {
	t.Helper()
	recordPath := filepath.Join(env.baseDir, "in", "record.yaml")
	photoPath := filepath.Join(env.baseDir, "in", "photo.png")
	testsupport.WriteRecordFile(t, recordPath, testsupport.ScenarioRecord())
	testsupport.WritePhoto(t, photoPath, testsupport.SolidImage(1000, 800, color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}))
	return recordPath, photoPath
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLIEnv(t, "")

	out, err := runCLI(t, env, "", "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.outputDir)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err = runCLI(t, nil, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, err := runCLI(t, nil, "", "config", "init", "--path", target); err == nil {
		t.Fatalf("expected init to refuse overwriting")
	}
}

func TestConfigValidateReportsBadValues(t *testing.T) {
	env := setupCLIEnv(t, "[render]\ncode_size = 5\n")
	_, err := runCLI(t, env, "", "config", "validate")
	if err == nil || !strings.Contains(err.Error(), "render.code_size") {
		t.Fatalf("expected code_size validation error, got %v", err)
	}
}

func TestPayloadCommandFromFlags(t *testing.T) {
	env := setupCLIEnv(t, "")
	out, err := runCLI(t, env, "", "payload",
		"--id", "X1", "--description", "Pallet",
		"--length", "10", "--width", "5", "--height", "4", "--weight", "20", "--check")
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	want := payload.Serialize(testsupport.ScenarioRecord()).String()
	if strings.TrimSpace(out) != want {
		t.Fatalf("payload output %q, want %q", out, want)
	}
}

func TestPayloadCommandFlagsOverrideRecordFile(t *testing.T) {
	env := setupCLIEnv(t, "")
	recordPath, _ := writeInputs(t, env)
	out, err := runCLI(t, env, "", "payload", "--record", recordPath, "--id", "X2", "--imperial-weight")
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	requireContains(t, out, `"id":"X2"`)
	requireContains(t, out, `"desc":"Pallet"`)
	requireContains(t, out, `"unit":"lb"`)
}

func TestPayloadCommandRejectsPartialLocationAndOversize(t *testing.T) {
	env := setupCLIEnv(t, "")
	if _, err := runCLI(t, env, "", "payload", "--lat", "1", "--lng", "2"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err := runCLI(t, env, "", "payload", "--notes", strings.Repeat("n", 5000), "--check")
	if !errors.Is(err, services.ErrPayloadTooLarge) {
		t.Fatalf("expected payload too large, got %v", err)
	}
}

func TestPayloadCommandRejectsInvalidUTF8Flags(t *testing.T) {
	env := setupCLIEnv(t, "")
	for _, flag := range []string{"--id", "--notes", "--length"} {
		_, err := runCLI(t, env, "", "payload", flag, "A\xffB")
		if !errors.Is(err, cargo.ErrInvalidText) || !errors.Is(err, services.ErrValidation) {
			t.Fatalf("%s: expected invalid text validation error, got %v", flag, err)
		}
	}
}

func TestPayloadCommandWithLocation(t *testing.T) {
	env := setupCLIEnv(t, "")
	out, err := runCLI(t, env, "", "payload", "--id", "X1", "--lat", "12.34", "--lng", "56.78", "--ts", "1234567890")
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	requireContains(t, out, `"loc":{"lat":12.34,"lng":56.78,"ts":1234567890}`)
}

func TestComposeDeliversAndJournals(t *testing.T) {
	env := setupCLIEnv(t, "")
	recordPath, photoPath := writeInputs(t, env)

	out, err := runCLI(t, env, "", "compose", "--record", recordPath, "--photo", photoPath, "--json")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	var art api.Artifact
	if err := json.Unmarshal([]byte(out), &art); err != nil {
		t.Fatalf("decode compose json %q: %v", out, err)
	}
	if art.CargoID != "X1" || art.Width != 1000 || art.Height != 800 {
		t.Fatalf("unexpected artifact %+v", art)
	}
	if filepath.Dir(art.Location) != env.outputDir {
		t.Fatalf("artifact delivered to %q, want inside %q", art.Location, env.outputDir)
	}
	if _, err := os.Stat(art.Location); err != nil {
		t.Fatalf("delivered artifact missing: %v", err)
	}

	out, err = runCLI(t, env, "", "history", "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var history api.HistoryResponse
	if err := json.Unmarshal([]byte(out), &history); err != nil {
		t.Fatalf("decode history json: %v", err)
	}
	if len(history.Deliveries) != 1 || history.Deliveries[0].ArtifactDigest != art.Digest {
		t.Fatalf("unexpected history %+v", history.Deliveries)
	}

	out, err = runCLI(t, env, "", "history", "--cargo-id", "X1")
	if err != nil {
		t.Fatalf("history table: %v", err)
	}
	requireContains(t, out, filepath.Base(art.Location))
	requireContains(t, out, "1 deliveries shown")

	out, err = runCLI(t, env, "", "inspect", "--image", art.Location, "--json")
	if err != nil {
		t.Fatalf("inspect image: %v", err)
	}
	requireContains(t, out, `"id": "X1"`)
	requireContains(t, out, `"description": "Pallet"`)
}

func TestComposeToStdout(t *testing.T) {
	env := setupCLIEnv(t, "")
	recordPath, photoPath := writeInputs(t, env)

	out, err := runCLI(t, env, "", "compose", "--record", recordPath, "--photo", photoPath, "--output", "-")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	img, err := jpeg.Decode(strings.NewReader(out))
	if err != nil {
		t.Fatalf("stdout is not a jpeg: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 1000, 800) {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	entries, _ := os.ReadDir(env.outputDir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".jpg") {
			t.Fatalf("unexpected file in output dir: %s", e.Name())
		}
	}
}

func TestComposeFailures(t *testing.T) {
	env := setupCLIEnv(t, "")
	recordPath, _ := writeInputs(t, env)

	if _, err := runCLI(t, env, "", "compose", "--record", recordPath); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error without --photo, got %v", err)
	}
	missing := filepath.Join(env.baseDir, "missing.png")
	if _, err := runCLI(t, env, "", "compose", "--record", recordPath, "--photo", missing); !errors.Is(err, services.ErrPhotoUnavailable) {
		t.Fatalf("expected photo unavailable, got %v", err)
	}
}

func TestInspectPayload(t *testing.T) {
	env := setupCLIEnv(t, "")
	text := payload.Serialize(testsupport.ScenarioRecord()).String()

	out, err := runCLI(t, env, "", "inspect", text)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, out, "id: X1")
	requireContains(t, out, "description: Pallet")

	out, err = runCLI(t, env, text+"\n", "inspect", "-", "--json")
	if err != nil {
		t.Fatalf("inspect stdin: %v", err)
	}
	requireContains(t, out, `"weight": "20"`)

	if _, err := runCLI(t, env, "", "inspect", "not json"); err == nil {
		t.Fatalf("expected malformed payload to fail")
	}
	if _, err := runCLI(t, env, "", "inspect"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error without input, got %v", err)
	}
}

func TestLocateStatic(t *testing.T) {
	env := setupCLIEnv(t, "[location]\nsource = \"static\"\nstatic_latitude = 51.5\nstatic_longitude = -0.12\n")
	out, err := runCLI(t, env, "", "locate")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	requireContains(t, out, "51.500000")
	requireContains(t, out, "-0.120000")
}

func TestLocateWithoutSourceFails(t *testing.T) {
	env := setupCLIEnv(t, "")
	out, err := runCLI(t, env, "", "locate")
	if !errors.Is(err, services.ErrLocationUnavailable) {
		t.Fatalf("expected location unavailable, got %v", err)
	}
	requireContains(t, out, "UNSUPPORTED")
}

func TestHistoryEmpty(t *testing.T) {
	env := setupCLIEnv(t, "")
	out, err := runCLI(t, env, "", "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No deliveries recorded")
}
