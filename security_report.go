package namewrap

import "github.com/rvellem/namewrap/internal/security"

type SecurityReport struct {
	ProductionMode             bool
	AuditPipelineActive        bool
	AdminConfigured            bool
	RegistrationThrottleActive bool
	RenewThrottleActive        bool
	BatchSizeCapped            bool
	MaxBatchSize               int
	MaxNameDepth               int
	DefaultStorePrefix         bool
	MetricsActive              bool
	LatencyHistogramsActive    bool
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	report := security.BuildReport(security.ReportInput{
		ProductionMode:  e.config.Security.ProductionMode,
		AuditEnabled:    e.config.Audit.Enabled,
		AuditBufferSize: e.config.Audit.BufferSize,
		Admin:           e.config.Wrapper.Admin,
		Registration: security.ThrottleReport{
			Enabled: e.config.Rate.EnableRegistrationThrottle,
			Limit:   e.config.Rate.MaxRegistrations,
			Window:  e.config.Rate.RegistrationWindow,
		},
		Renew: security.ThrottleReport{
			Enabled: e.config.Rate.EnableRenewThrottle,
			Limit:   e.config.Rate.MaxRenewals,
			Window:  e.config.Rate.RenewWindow,
		},
		MaxBatchSize:            e.config.Security.MaxBatchSize,
		MaxNameDepth:            e.config.Security.MaxNameDepth,
		RedisPrefix:             e.config.Store.RedisPrefix,
		DefaultRedisPrefix:      defaultRedisPrefix,
		MetricsEnabled:          e.config.Metrics.Enabled,
		EnableLatencyHistograms: e.config.Metrics.EnableLatencyHistograms,
	})

	return SecurityReport(report)
}
