// Package config declares the status card configuration record (loaded
// from a JSON file, validated field-by-field with fallback to defaults)
// and the process-level flags that configure the responder itself.
package config

import (
	"encoding/json"
	"math"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// StatusConfig is the read-only record presented as the server's status
// card: MOTD, icon, fake player sample, protocol version, and the message
// shown to anyone who actually attempts to log in.
type StatusConfig struct {
	IP          string   `json:"ip"`
	Port        uint16   `json:"port"`
	Protocol    int32    `json:"protocol"`
	Motd        string   `json:"motd"`
	VersionText string   `json:"version_text"`
	KickMessage string   `json:"kick_message"`
	ServerIcon  string   `json:"server_icon"`
	Samples     []string `json:"samples"`
}

// DefaultStatusConfig returns the built-in defaults, used both to seed a
// freshly-created config file and as the in-memory fallback when an
// existing file is missing or malformed.
func DefaultStatusConfig() StatusConfig {
	return StatusConfig{
		IP:          "0.0.0.0",
		Port:        25565,
		Protocol:    2,
		Motd:        "§c服务器正在维护！\n§e请等待服主通知",
		VersionText: "§4服务器维护中...",
		KickMessage: "§4§l很抱歉，服务器正在维护中，暂时无法进入！\n\n§e请不要心急，耐心等待服主通知",
		ServerIcon:  "server-icon.png",
		Samples:     []string{"§f服务器正在维护", "§f请等待服主通知"},
	}
}

// LoadStatusConfig loads the status config from filename.
//
//   - If the file does not exist, it is created with DefaultStatusConfig
//     and those defaults are returned.
//   - If the file exists but fails to parse, or is missing a field, or has
//     a field of the wrong primitive kind, the defaults are returned for
//     this run and the on-disk file is left untouched.
//   - Otherwise the parsed, fully-validated record is returned.
func LoadStatusConfig(filename string) (StatusConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.WithField("file", filename).Warn("No config file found, creating one with defaults")
			defaults := DefaultStatusConfig()
			if writeErr := writeStatusConfig(filename, defaults); writeErr != nil {
				logrus.WithError(writeErr).Error("Failed to create default config file, using in-memory defaults")
			}
			return defaults, nil
		}
		return StatusConfig{}, errors.Wrap(err, "failed to read config file")
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		logrus.WithError(err).Error("Config file failed to parse, using temporary in-memory defaults")
		return DefaultStatusConfig(), nil
	}

	cfg, errs := validateStatusConfig(raw)
	if len(errs) > 0 {
		for _, e := range errs {
			logrus.Error(e)
		}
		logrus.Warn("Config file validation failed, using temporary in-memory defaults (file left unchanged)")
		return DefaultStatusConfig(), nil
	}

	logrus.WithField("file", filename).Info("Config file validated and loaded")
	return cfg, nil
}

// validateStatusConfig checks each field of raw against the kind of the
// corresponding DefaultStatusConfig field, collecting one error per
// missing-or-mistyped field. It never partially applies user values: a
// single bad field falls back to defaults for the whole record, matching
// the all-or-nothing semantics of the config this was grounded on.
func validateStatusConfig(raw map[string]interface{}) (StatusConfig, []error) {
	var errs []error
	defaults := DefaultStatusConfig()

	requireString := func(key string) (string, bool) {
		v, ok := raw[key]
		if !ok {
			errs = append(errs, errors.Errorf("missing required config key: %q", key))
			return "", false
		}
		s, ok := v.(string)
		if !ok {
			errs = append(errs, errors.Errorf("config key %q must be a string", key))
			return "", false
		}
		return s, true
	}
	requireNumber := func(key string) (float64, bool) {
		v, ok := raw[key]
		if !ok {
			errs = append(errs, errors.Errorf("missing required config key: %q", key))
			return 0, false
		}
		n, ok := v.(float64)
		if !ok || n != math.Trunc(n) {
			errs = append(errs, errors.Errorf("config key %q must be an integer", key))
			return 0, false
		}
		return n, true
	}
	requireStringList := func(key string) ([]string, bool) {
		v, ok := raw[key]
		if !ok {
			errs = append(errs, errors.Errorf("missing required config key: %q", key))
			return nil, false
		}
		list, ok := v.([]interface{})
		if !ok {
			errs = append(errs, errors.Errorf("config key %q must be a list of strings", key))
			return nil, false
		}
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				errs = append(errs, errors.Errorf("config key %q must be a list of strings", key))
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}

	cfg := defaults
	if ip, ok := requireString("ip"); ok {
		cfg.IP = ip
	}
	if port, ok := requireNumber("port"); ok {
		cfg.Port = uint16(port)
	}
	if protocol, ok := requireNumber("protocol"); ok {
		cfg.Protocol = int32(protocol)
	}
	if motd, ok := requireString("motd"); ok {
		cfg.Motd = motd
	}
	if versionText, ok := requireString("version_text"); ok {
		cfg.VersionText = versionText
	}
	if kickMessage, ok := requireString("kick_message"); ok {
		cfg.KickMessage = kickMessage
	}
	if icon, ok := requireString("server_icon"); ok {
		cfg.ServerIcon = icon
	}
	if samples, ok := requireStringList("samples"); ok {
		cfg.Samples = samples
	}

	if len(errs) > 0 {
		return StatusConfig{}, errs
	}
	return cfg, nil
}

func writeStatusConfig(filename string, cfg StatusConfig) error {
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal default config")
	}
	return os.WriteFile(filename, data, 0o644)
}
