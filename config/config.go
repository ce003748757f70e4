package config

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/ryanuber/columnize"
	log "github.com/sirupsen/logrus"
	"github.com/torusresearch/bijson"

	"github.com/arcana-network/roastnode/common"
)

var GlobalConfig *Config

// Config carries every recognized server option. Durations of zero mean
// "unset" only for KeepAliveFreq; all other durations fall back to their
// defaults when absent from the config file.
type Config struct {
	ListenAddress             string             `json:"listenAddress"`
	ChallengeTTL              time.Duration      `json:"challengeTTL"`
	SessionTTL                time.Duration      `json:"sessionTTL"`
	MinDkgRequestTTL          time.Duration      `json:"minDkgRequestTTL"`
	MaxDkgRequestTTL          time.Duration      `json:"maxDkgRequestTTL"`
	MinSignaturesRequestTTL   time.Duration      `json:"minSignaturesRequestTTL"`
	MaxSignaturesRequestTTL   time.Duration      `json:"maxSignaturesRequestTTL"`
	MinCompletedSignaturesTTL time.Duration      `json:"minCompletedSignaturesTTL"`
	AckCacheTTL               time.Duration      `json:"ackCacheTTL"`
	KeepAliveFreq             time.Duration      `json:"keepAliveFreq"`
	Group                     common.GroupConfig `json:"group"`
}

func GetDefaultConfig() *Config {
	return &Config{
		ListenAddress:             DefaultListenAddress,
		ChallengeTTL:              DefaultChallengeTTL,
		SessionTTL:                DefaultSessionTTL,
		MinDkgRequestTTL:          DefaultMinDkgRequestTTL,
		MaxDkgRequestTTL:          DefaultMaxDkgRequestTTL,
		MinSignaturesRequestTTL:   DefaultMinSignaturesRequestTTL,
		MaxSignaturesRequestTTL:   DefaultMaxSignaturesRequestTTL,
		MinCompletedSignaturesTTL: DefaultMinCompletedSignaturesTTL,
		AckCacheTTL:               DefaultAckCacheTTL,
	}
}

func (c *Config) VerifyRequired() error {
	if len(c.Group.Participants) == 0 {
		return errors.New("required group configuration missing")
	}
	return nil
}

func ConfigFromFile(configPath string) (*Config, error) {
	config := GetDefaultConfig()
	log.Debugf("ConfigPath=%s", configPath)
	f, err := os.OpenFile(configPath, os.O_RDONLY|os.O_SYNC, 0)
	if err != nil {
		log.WithError(err).Error("OpenConfigFile")
		return nil, err
	}
	defer f.Close()

	err = bijson.NewDecoder(f).Decode(config)
	if err != nil {
		log.WithError(err).Error("DecodeConfig")
		return nil, errors.Wrap(err, "error reading config")
	}
	return config, nil
}

// MarshalText renders the config as key = value lines. Group is a single
// JSON value; durations use Go duration notation.
func (c *Config) MarshalText() ([]byte, error) {
	group, err := bijson.Marshal(c.Group)
	if err != nil {
		return nil, err
	}

	lines := []string{
		fmt.Sprintf("listenAddress|%s", c.ListenAddress),
		fmt.Sprintf("challengeTTL|%s", c.ChallengeTTL),
		fmt.Sprintf("sessionTTL|%s", c.SessionTTL),
		fmt.Sprintf("minDkgRequestTTL|%s", c.MinDkgRequestTTL),
		fmt.Sprintf("maxDkgRequestTTL|%s", c.MaxDkgRequestTTL),
		fmt.Sprintf("minSignaturesRequestTTL|%s", c.MinSignaturesRequestTTL),
		fmt.Sprintf("maxSignaturesRequestTTL|%s", c.MaxSignaturesRequestTTL),
		fmt.Sprintf("minCompletedSignaturesTTL|%s", c.MinCompletedSignaturesTTL),
		fmt.Sprintf("ackCacheTTL|%s", c.AckCacheTTL),
		fmt.Sprintf("keepAliveFreq|%s", c.KeepAliveFreq),
		fmt.Sprintf("group|%s", string(group)),
	}

	columnConf := columnize.DefaultConfig()
	columnConf.Empty = ""
	columnConf.Glue = " = "
	return []byte(columnize.Format(lines, columnConf) + "\n"), nil
}

func (c *Config) UnmarshalText(data []byte) error {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			return errors.Errorf("malformed config line: %q", line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		var err error
		switch key {
		case "listenAddress":
			c.ListenAddress = value
		case "challengeTTL":
			c.ChallengeTTL, err = time.ParseDuration(value)
		case "sessionTTL":
			c.SessionTTL, err = time.ParseDuration(value)
		case "minDkgRequestTTL":
			c.MinDkgRequestTTL, err = time.ParseDuration(value)
		case "maxDkgRequestTTL":
			c.MaxDkgRequestTTL, err = time.ParseDuration(value)
		case "minSignaturesRequestTTL":
			c.MinSignaturesRequestTTL, err = time.ParseDuration(value)
		case "maxSignaturesRequestTTL":
			c.MaxSignaturesRequestTTL, err = time.ParseDuration(value)
		case "minCompletedSignaturesTTL":
			c.MinCompletedSignaturesTTL, err = time.ParseDuration(value)
		case "ackCacheTTL":
			c.AckCacheTTL, err = time.ParseDuration(value)
		case "keepAliveFreq":
			c.KeepAliveFreq, err = time.ParseDuration(value)
		case "group":
			err = bijson.Unmarshal([]byte(value), &c.Group)
		default:
			return errors.Errorf("unknown config key: %q", key)
		}
		if err != nil {
			return errors.Wrapf(err, "config key %q", key)
		}
	}
	return nil
}

// plainConfig strips the Binary(Un)Marshaler methods so gob encodes the
// struct fields instead of recursing into MarshalBinary.
type plainConfig Config

func (c *Config) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode((*plainConfig)(c)); err != nil {
		return nil, errors.Wrap(err, "encoding config")
	}
	return buf.Bytes(), nil
}

func (c *Config) UnmarshalBinary(data []byte) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode((*plainConfig)(c)); err != nil {
		return errors.Wrap(err, "decoding config")
	}
	return nil
}
