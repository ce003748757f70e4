package config

import "time"

const (
	DefaultListenAddress             = ":8090"
	DefaultChallengeTTL              = 20 * time.Second
	DefaultSessionTTL                = 60 * time.Second
	DefaultMinDkgRequestTTL          = 29 * time.Minute
	DefaultMaxDkgRequestTTL          = 7 * 24 * time.Hour
	DefaultMinSignaturesRequestTTL   = 25 * time.Second
	DefaultMaxSignaturesRequestTTL   = 14 * 24 * time.Hour
	DefaultMinCompletedSignaturesTTL = 24 * time.Hour
	DefaultAckCacheTTL               = time.Minute
)
