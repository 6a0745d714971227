package config

import (
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// unsetEnv clears the variables read by Init for the duration of the test.
func unsetEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DATA_DIR", "SWEEP_INTERVAL", "RECOVERY_THRESHOLD", "SLIPPAGE_BPS",
		"LOG_LEVEL", "DERIVER", "DERIVATION_ACCOUNT", "DERIVATION_SECRET",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestInitDefaults(t *testing.T) {
	unsetEnv(t)
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	c := Get()
	if c.Port != "8080" || c.SweepInterval != time.Minute || c.RecoveryThreshold != 10*time.Minute {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.SlippageBps != 10 || c.Deriver != DeriverEphemeral {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if GetLogLevel() != logrus.InfoLevel {
		t.Fatalf("log level = %s", GetLogLevel())
	}
}

func TestInitRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "slippage", env: map[string]string{"SLIPPAGE_BPS": "51"}},
		{name: "sweep", env: map[string]string{"SWEEP_INTERVAL": "0s"}},
		{name: "log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "deriver", env: map[string]string{"DERIVER": "magic"}},
		{name: "deterministic without secret", env: map[string]string{"DERIVER": "deterministic", "DERIVATION_ACCOUNT": "alice.near"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if err := Init(); err == nil {
				t.Fatalf("expected error for %v", tt.env)
			}
		})
	}
}

func TestGetVaultPasswordBytesReturnsCopy(t *testing.T) {
	passwordBytes = []byte("secret")
	defer ClearPassword()

	got, err := GetVaultPasswordBytes()
	if err != nil {
		t.Fatalf("GetVaultPasswordBytes: %v", err)
	}
	clear(got)
	again, _ := GetVaultPasswordBytes()
	if string(again) != "secret" {
		t.Fatal("clearing the returned slice must not touch the stored password")
	}

	ClearPassword()
	if _, err := GetVaultPasswordBytes(); err == nil {
		t.Fatal("expected error after ClearPassword")
	}
}
