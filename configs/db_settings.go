package config

import (
	"log"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DBSettings is a driver-ready description of how to reach the MySQL server.
type DBSettings struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	PoolSize int

	SSLCA             string
	SSLVerifyCert     bool
	SSLVerifyIdentity bool
}

// Addr returns the host:port pair for the driver.
func (s DBSettings) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// Complete reports whether the settings are sufficient to attempt a
// connection. Callers must not dial when this is false.
func (s DBSettings) Complete() bool {
	return s.Host != "" && s.Password != ""
}

// Filenames commonly used by managed MySQL providers for their CA bundle,
// probed in order when MYSQL_SSL_CA points at a directory.
var sslCACandidates = []string{
	"ca.pem",
	"ca-cert.pem",
	"ca-certificate.crt",
	"server-ca.pem",
	"root.crt",
	"BaltimoreCyberTrustRoot.crt.pem",
	"DigiCertGlobalRootCA.crt.pem",
}

var certExtensions = map[string]bool{".pem": true, ".crt": true, ".cer": true}

// ResolveDBSettings builds the connection settings from the environment.
// Precedence: full MYSQL_URL DSN > discrete MYSQL_* variables > a host:port
// literal embedded in MYSQL_HOST > SSL CA discovery from MYSQL_SSL_CA.
func ResolveDBSettings() DBSettings {
	settings := DBSettings{
		Host:     getenv("MYSQL_HOST", "localhost"),
		Port:     getenvInt("MYSQL_PORT", 3306),
		User:     getenv("MYSQL_USER", "root"),
		Password: os.Getenv("MYSQL_PASSWORD"),
		Database: getenv("MYSQL_DATABASE", "users"),
		PoolSize: getenvInt("MYSQL_POOL_SIZE", 5),
	}

	if rawURL := os.Getenv("MYSQL_URL"); rawURL != "" {
		applyURL(&settings, rawURL)
	} else {
		applyHostPortLiteral(&settings)
	}

	if ca := resolveSSLCA(os.Getenv("MYSQL_SSL_CA")); ca != "" {
		settings.SSLCA = ca
		settings.SSLVerifyCert = true
		// Managed providers issue certificates under their own domains, so
		// hostname verification stays off when a CA is configured.
		settings.SSLVerifyIdentity = false
	}

	return settings
}

// applyURL overrides any setting that is present in the full connection URL.
func applyURL(settings *DBSettings, rawURL string) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		log.Printf("Ignoring unparseable MYSQL_URL, falling back to discrete settings: %v", err)
		return
	}

	if user := parsed.User.Username(); user != "" {
		settings.User = user
	}
	if password, ok := parsed.User.Password(); ok && password != "" {
		settings.Password = password
	}
	if host := parsed.Hostname(); host != "" {
		settings.Host = host
	}
	if port := parsed.Port(); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			settings.Port = n
		}
	}
	if name := strings.TrimPrefix(parsed.Path, "/"); name != "" {
		settings.Database = name
	}
}

// applyHostPortLiteral splits an embedded "host:port" out of MYSQL_HOST.
// Bracketed IPv6 literals are left alone.
func applyHostPortLiteral(settings *DBSettings) {
	host := settings.Host
	if strings.HasPrefix(host, "[") || strings.Count(host, ":") != 1 {
		return
	}

	parts := strings.SplitN(host, ":", 2)
	port, err := strconv.Atoi(parts[1])
	if err != nil || parts[0] == "" {
		return
	}
	settings.Host = parts[0]
	settings.Port = port
}

// resolveSSLCA accepts a certificate file path or a directory to search.
// An empty return means SSL stays unconfigured.
func resolveSSLCA(path string) string {
	if path == "" {
		return ""
	}

	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	if !info.IsDir() {
		return path
	}

	for _, name := range sslCACandidates {
		candidate := filepath.Join(path, name)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate
		}
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return ""
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && certExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return filepath.Join(path, names[0])
}

func getenvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
