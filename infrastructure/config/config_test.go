package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/VeriBlock/alt-integration-cpp-sub004/infrastructure/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("TestLoadConfigDefaults: LoadConfig: %+v", err)
	}
	if cfg.NetParams().Name != "mainnet" {
		t.Fatalf("TestLoadConfigDefaults: expected mainnet, got %s", cfg.NetParams().Name)
	}
	if cfg.DataDir != filepath.Join(defaultDataDir, "mainnet") {
		t.Fatalf("TestLoadConfigDefaults: unexpected data dir %s", cfg.DataDir)
	}
	if cfg.DBCacheSizeMiB != defaultDBCacheSizeMiB {
		t.Fatalf("TestLoadConfigDefaults: unexpected database cache %d", cfg.DBCacheSizeMiB)
	}
	if cfg.logRotation() != logger.DefaultRotation {
		t.Fatalf("TestLoadConfigDefaults: unexpected log rotation %+v", cfg.logRotation())
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"multiple networks", []string{"--testnet", "--regtest"}},
		{"unknown flag", []string{"--nosuchflag"}},
		{"unexpected argument", []string{"extra"}},
		{"tiny database cache", []string{"--dbcache=1"}},
		{"non positive log rotation size", []string{"--logrotatekb=0"}},
		{"no kept log files", []string{"--logmaxrolls=0"}},
		{"bad debug level", []string{"--debuglevel=verbose"}},
		{"override outside regtest", []string{"--testnet", "--override-params-file=params.json"}},
	}
	for _, test := range tests {
		_, err := LoadConfig(test.args)
		if err == nil {
			t.Fatalf("TestLoadConfigErrors: %s: expected an error", test.name)
		}
	}
}

func writeTempFile(t *testing.T, dir string, content string) string {
	path := filepath.Join(dir, "params.json")
	err := ioutil.WriteFile(path, []byte(content), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	return path
}

func TestOverrideParams(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "TestOverrideParams")
	if err != nil {
		t.Fatalf("TestOverrideParams: TempDir unexpectedly failed: %s", err)
	}
	defer os.RemoveAll(tmpDir)

	path := writeTempFile(t, tmpDir, `{
		"vbk": {"keystoneInterval": 10, "finalityDelay": 20},
		"alt": {"forkResolutionLookupTable": [100, 50], "maxOrphans": 3, "orphanExpirationInSeconds": 60}
	}`)
	cfg, err := LoadConfig([]string{"--regtest", "--override-params-file=" + path, "--datadir=" + tmpDir})
	if err != nil {
		t.Fatalf("TestOverrideParams: LoadConfig: %+v", err)
	}

	params := cfg.NetParams()
	if params.VBK.KeystoneInterval != 10 || params.VBK.FinalityDelay != 20 {
		t.Fatalf("TestOverrideParams: VBK params were not overridden: %+v", params.VBK)
	}
	if len(params.ALT.ForkResolutionLookupTable) != 2 || params.ALT.MaxOrphans != 3 ||
		params.ALT.OrphanExpiration.Seconds() != 60 {
		t.Fatalf("TestOverrideParams: ALT params were not overridden: %+v", params.ALT)
	}
	if params.BTC.KeystoneInterval != 0 {
		t.Fatalf("TestOverrideParams: BTC params changed unexpectedly: %+v", params.BTC)
	}
	if cfg.DataDir != filepath.Join(tmpDir, "regtest") {
		t.Fatalf("TestOverrideParams: unexpected data dir %s", cfg.DataDir)
	}

	invalidPath := writeTempFile(t, tmpDir, `{"alt": {"forkResolutionLookupTable": [1, 2]}}`)
	_, err = LoadConfig([]string{"--regtest", "--override-params-file=" + invalidPath})
	if err == nil {
		t.Fatalf("TestOverrideParams: expected an increasing lookup table to be rejected")
	}

	unknownFieldPath := writeTempFile(t, tmpDir, `{"alt": {"keystone": 1}}`)
	_, err = LoadConfig([]string{"--regtest", "--override-params-file=" + unknownFieldPath})
	if err == nil {
		t.Fatalf("TestOverrideParams: expected an unknown field to be rejected")
	}
}

func TestOpenDatabase(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "TestOpenDatabase")
	if err != nil {
		t.Fatalf("TestOpenDatabase: TempDir unexpectedly failed: %s", err)
	}
	defer os.RemoveAll(tmpDir)

	cfg, err := LoadConfig([]string{"--regtest", "--datadir=" + tmpDir})
	if err != nil {
		t.Fatalf("TestOpenDatabase: LoadConfig: %+v", err)
	}
	db, err := cfg.OpenDatabase()
	if err != nil {
		t.Fatalf("TestOpenDatabase: OpenDatabase: %+v", err)
	}
	err = db.Close()
	if err != nil {
		t.Fatalf("TestOpenDatabase: Close: %+v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "regtest")); err != nil {
		t.Fatalf("TestOpenDatabase: data directory was not created: %s", err)
	}
}

func TestCleanAndExpandPath(t *testing.T) {
	os.Setenv("POP_TEST_DIR", "/tmp/pop")
	defer os.Unsetenv("POP_TEST_DIR")

	if path := cleanAndExpandPath("$POP_TEST_DIR/../data/"); path != "/tmp/data" {
		t.Fatalf("TestCleanAndExpandPath: unexpected path %s", path)
	}
	if path := cleanAndExpandPath("~/data"); path != filepath.Join(filepath.Dir(DefaultHomeDir), "data") {
		t.Fatalf("TestCleanAndExpandPath: unexpected path %s", path)
	}
}
