package cmd

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func logLevelFlag(v *viper.Viper) string {
	return v.GetString("log.level")
}

func addLogLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-level", "info", "log level")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func logFormatFlag(v *viper.Viper) string {
	return v.GetString("log.format")
}

func addLogFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-format", "json", "log format")
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindEnv("log.format", "LOG_FORMAT")
}

func addressFlag(v *viper.Viper) string {
	return v.GetString("address")
}

func addAddressFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("address", ":8080", "Address to bind to (host:port)")
	_ = v.BindPFlag("address", flags.Lookup("address"))
	_ = v.BindEnv("address", "GUESTBOOK_ADDRESS")
}

func basePathFlag(v *viper.Viper) string {
	return v.GetString("base_path")
}

func addBasePathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("base-path", "", "Base path to export the API on - useful when behind a proxy")
	_ = v.BindPFlag("base_path", flags.Lookup("base-path"))
	_ = v.BindEnv("base_path", "GUESTBOOK_BASE_PATH")
}

func storageBucketFlag(v *viper.Viper) string {
	return v.GetString("storage.bucket")
}

func addStorageBucketFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-bucket", "", "Blob bucket URL for durable note storage (gs://, s3://, azblob://); notes are ephemeral when unset")
	_ = v.BindPFlag("storage.bucket", flags.Lookup("storage-bucket"))
	_ = v.BindEnv("storage.bucket", "GUESTBOOK_STORAGE_BUCKET")
}

func storagePrefixFlag(v *viper.Viper) string {
	return v.GetString("storage.prefix")
}

func addStoragePrefixFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-prefix", "notes/", "Key prefix for stored notes")
	_ = v.BindPFlag("storage.prefix", flags.Lookup("storage-prefix"))
	_ = v.BindEnv("storage.prefix", "GUESTBOOK_STORAGE_PREFIX")
}

func storageDirFlag(v *viper.Viper) string {
	return v.GetString("storage.dir")
}

func addStorageDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-dir", "", "Local directory for durable note storage, used when no bucket is configured")
	_ = v.BindPFlag("storage.dir", flags.Lookup("storage-dir"))
	_ = v.BindEnv("storage.dir", "GUESTBOOK_STORAGE_DIR")
}

func adminPasswordFlag(v *viper.Viper) string {
	return v.GetString("admin.password")
}

func addAdminPasswordFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("admin-password", "", "Password expected by the auth gate, falls back to an insecure local default when unset")
	_ = v.BindPFlag("admin.password", flags.Lookup("admin-password"))
	_ = v.BindEnv("admin.password", "GUESTBOOK_ADMIN_PASSWORD", "ADMIN_PASSWORD")
}

func authDelayFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("auth.delay")
}

func addAuthDelayFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("auth-delay", time.Second, "Fixed pause before answering a failed password check")
	_ = v.BindPFlag("auth.delay", flags.Lookup("auth-delay"))
	_ = v.BindEnv("auth.delay", "GUESTBOOK_AUTH_DELAY")
}

func tokenTTLFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("auth.token_ttl")
}

func addTokenTTLFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("token-ttl", 24*time.Hour, "How long issued session tokens stay valid")
	_ = v.BindPFlag("auth.token_ttl", flags.Lookup("token-ttl"))
	_ = v.BindEnv("auth.token_ttl", "GUESTBOOK_TOKEN_TTL")
}

func corsAllowedOriginsFlag(v *viper.Viper) []string {
	return v.GetStringSlice("cors.allowed_origins")
}

func addCorsAllowedOriginsFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.StringSlice("cors-allowed-origins", []string{"*"}, "Origins allowed to call the API")
	_ = v.BindPFlag("cors.allowed_origins", flags.Lookup("cors-allowed-origins"))
	_ = v.BindEnv("cors.allowed_origins", "GUESTBOOK_CORS_ALLOWED_ORIGINS")
}

func gracefulPeriodFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("graceful_period")
}

func addGracefulPeriodFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("graceful-period", 30*time.Second, "Grace period for graceful shutdown")
	_ = v.BindPFlag("graceful_period", flags.Lookup("graceful-period"))
	_ = v.BindEnv("graceful_period", "GUESTBOOK_GRACEFUL_PERIOD")
}

func serviceHealthzEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.healthz.enabled")
}

func addServiceHealthzEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-healthz-enabled", false, "Enable healthz service")
	_ = v.BindPFlag("service.healthz.enabled", flags.Lookup("service-healthz-enabled"))
}

func servicePrometheusEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.prometheus.enabled")
}

func addServicePrometheusEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-prometheus-enabled", false, "Enable prometheus service")
	_ = v.BindPFlag("service.prometheus.enabled", flags.Lookup("service-prometheus-enabled"))
}

func servicePProfEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.pprof.enabled")
}

func addServicePProfEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-pprof-enabled", false, "Enable pprof service")
	_ = v.BindPFlag("service.pprof.enabled", flags.Lookup("service-pprof-enabled"))
}
