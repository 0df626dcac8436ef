package security

import "time"

type ThrottleReport struct {
	Enabled bool
	Limit   int
	Window  time.Duration
}

type Report struct {
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

type ReportInput struct {
	ProductionMode          bool
	AuditEnabled            bool
	AuditBufferSize         int
	Admin                   string
	Registration            ThrottleReport
	Renew                   ThrottleReport
	MaxBatchSize            int
	MaxNameDepth            int
	RedisPrefix             string
	DefaultRedisPrefix      string
	MetricsEnabled          bool
	EnableLatencyHistograms bool
}

func BuildReport(input ReportInput) Report {
	regThrottle := input.Registration.Enabled &&
		input.Registration.Limit > 0 &&
		input.Registration.Window > 0

	renewThrottle := input.Renew.Enabled &&
		input.Renew.Limit > 0 &&
		input.Renew.Window > 0

	return Report{
		ProductionMode:             input.ProductionMode,
		AuditPipelineActive:        input.AuditEnabled && input.AuditBufferSize > 0,
		AdminConfigured:            input.Admin != "",
		RegistrationThrottleActive: regThrottle,
		RenewThrottleActive:        renewThrottle,
		BatchSizeCapped:            input.MaxBatchSize > 0,
		MaxBatchSize:               input.MaxBatchSize,
		MaxNameDepth:               input.MaxNameDepth,
		DefaultStorePrefix:         input.RedisPrefix == "" || input.RedisPrefix == input.DefaultRedisPrefix,
		MetricsActive:              input.MetricsEnabled,
		LatencyHistogramsActive:    input.MetricsEnabled && input.EnableLatencyHistograms,
	}
}
