package namewrap

import (
	"strings"
	"testing"
)

func TestConfigValidateRules(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name: "default valid",
			mutate: func(c *Config) {
			},
			wantValid: true,
		},
		{
			name: "tld empty invalid",
			mutate: func(c *Config) {
				c.Wrapper.TLD = ""
			},
			wantValid: false,
		},
		{
			name: "tld dotted invalid",
			mutate: func(c *Config) {
				c.Wrapper.TLD = "co.uk"
			},
			wantValid: false,
		},
		{
			name: "tld overlong invalid",
			mutate: func(c *Config) {
				c.Wrapper.TLD = strings.Repeat("x", 256)
			},
			wantValid: false,
		},
		{
			name: "identity empty invalid",
			mutate: func(c *Config) {
				c.Wrapper.Identity = ""
			},
			wantValid: false,
		},
		{
			name: "admin equals identity invalid",
			mutate: func(c *Config) {
				c.Wrapper.Admin = c.Wrapper.Identity
			},
			wantValid: false,
		},
		{
			name: "registrar identity equals identity invalid",
			mutate: func(c *Config) {
				c.Wrapper.RegistrarIdentity = c.Wrapper.Identity
			},
			wantValid: false,
		},
		{
			name: "registrar identity distinct valid",
			mutate: func(c *Config) {
				c.Wrapper.RegistrarIdentity = "sys:other-registrar"
			},
			wantValid: true,
		},
		{
			name: "store prefix empty invalid",
			mutate: func(c *Config) {
				c.Store.RedisPrefix = ""
			},
			wantValid: false,
		},
		{
			name: "registration throttle zero max invalid",
			mutate: func(c *Config) {
				c.Rate.EnableRegistrationThrottle = true
				c.Rate.MaxRegistrations = 0
			},
			wantValid: false,
		},
		{
			name: "registration throttle zero window invalid",
			mutate: func(c *Config) {
				c.Rate.EnableRegistrationThrottle = true
				c.Rate.RegistrationWindow = 0
			},
			wantValid: false,
		},
		{
			name: "renew throttle zero max invalid",
			mutate: func(c *Config) {
				c.Rate.EnableRenewThrottle = true
				c.Rate.MaxRenewals = 0
			},
			wantValid: false,
		},
		{
			name: "renew throttle zero window invalid",
			mutate: func(c *Config) {
				c.Rate.EnableRenewThrottle = true
				c.Rate.RenewWindow = 0
			},
			wantValid: false,
		},
		{
			name: "throttles disabled ignore zero limits",
			mutate: func(c *Config) {
				c.Rate.MaxRegistrations = 0
				c.Rate.MaxRenewals = 0
			},
			wantValid: true,
		},
		{
			name: "audit enabled zero buffer invalid",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "audit disabled ignores buffer",
			mutate: func(c *Config) {
				c.Audit.BufferSize = 0
			},
			wantValid: true,
		},
		{
			name: "negative batch size invalid",
			mutate: func(c *Config) {
				c.Security.MaxBatchSize = -1
			},
			wantValid: false,
		},
		{
			name: "zero batch size valid outside production",
			mutate: func(c *Config) {
				c.Security.MaxBatchSize = 0
			},
			wantValid: true,
		},
		{
			name: "zero name depth invalid",
			mutate: func(c *Config) {
				c.Security.MaxNameDepth = 0
			},
			wantValid: false,
		},
		{
			name: "production fully hardened valid",
			mutate: func(c *Config) {
				c.Security.ProductionMode = true
				c.Audit.Enabled = true
				c.Wrapper.Admin = "ops:admin"
				c.Rate.EnableRegistrationThrottle = true
			},
			wantValid: true,
		},
		{
			name: "production without audit invalid",
			mutate: func(c *Config) {
				c.Security.ProductionMode = true
				c.Wrapper.Admin = "ops:admin"
				c.Rate.EnableRegistrationThrottle = true
			},
			wantValid: false,
		},
		{
			name: "production without admin invalid",
			mutate: func(c *Config) {
				c.Security.ProductionMode = true
				c.Audit.Enabled = true
				c.Rate.EnableRegistrationThrottle = true
			},
			wantValid: false,
		},
		{
			name: "production without registration throttle invalid",
			mutate: func(c *Config) {
				c.Security.ProductionMode = true
				c.Audit.Enabled = true
				c.Wrapper.Admin = "ops:admin"
			},
			wantValid: false,
		},
		{
			name: "production unbounded batch invalid",
			mutate: func(c *Config) {
				c.Security.ProductionMode = true
				c.Audit.Enabled = true
				c.Wrapper.Admin = "ops:admin"
				c.Rate.EnableRegistrationThrottle = true
				c.Security.MaxBatchSize = 0
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := wrapperTestConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected invalid config, got nil")
			}
		})
	}
}
