package ch

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo describes this process to the server (visible in
// system.query_log), e.g. role "api" or "cli"
func BuildClientInfo(role, product string) clickhouse.ClientInfo {
	host, _ := os.Hostname()

	var info clickhouse.ClientInfo
	for _, kv := range [][2]string{
		{product, moduleVersion()},
		{"role", role},
		{"go", runtime.Version()},
		{"commit", vcsShortSHA()},
		{"host", host},
	} {
		name, ver := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		if name == "" {
			continue
		}
		info.Products = append(info.Products, struct {
			Name    string
			Version string
		}{Name: name, Version: ver})
	}
	return info
}

func moduleVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "devel"
}

func vcsShortSHA() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return "unknown"
}
