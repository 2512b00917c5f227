package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/foomo/keel"
	"github.com/foomo/keel/net/http/middleware"
	"github.com/foomo/keel/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/foomo/guestbook/pkg/auth"
	"github.com/foomo/guestbook/pkg/handler"
	"github.com/foomo/guestbook/pkg/repo"
)

func NewServeCommand() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the guestbook API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			svr := keel.NewServer(
				keel.WithHTTPPrometheusService(servicePrometheusEnabledFlag(v)),
				keel.WithHTTPHealthzService(serviceHealthzEnabledFlag(v)),
				keel.WithPrometheusMeter(servicePrometheusEnabledFlag(v)),
				keel.WithGracefulPeriod(gracefulPeriodFlag(v)),
				keel.WithHTTPPProfService(servicePProfEnabledFlag(v)),
			)

			l := svr.Logger()

			// Storage mode is decided once here; everything downstream just
			// uses the injected backend.
			storage, err := createStorage(cmd.Context(), v, l)
			if err != nil {
				return fmt.Errorf("failed to create storage: %w", err)
			}

			notes := repo.New(l.Named("inst.repo"), storage)

			gateOpts := []auth.Option{
				auth.WithDelay(authDelayFlag(v)),
				auth.WithTokenTTL(tokenTTLFlag(v)),
			}
			if secret := adminPasswordFlag(v); secret != "" {
				gateOpts = append(gateOpts, auth.WithSecret(secret))
			} else {
				l.Warn("no admin password configured, falling back to the insecure local default")
			}
			gate := auth.New(l.Named("inst.auth"), gateOpts...)

			svr.AddClosers(func(ctx context.Context) error {
				return notes.Close()
			})

			svr.AddServices(
				service.NewHTTP(l.Named("svc.http"), "http", addressFlag(v),
					handler.NewHTTP(l.Named("inst.handler"), notes, gate,
						handler.WithBasePath(basePathFlag(v)),
						handler.WithAllowedOrigins(corsAllowedOriginsFlag(v)...),
					),
					middleware.Telemetry(),
					middleware.Logger(),
					middleware.Recover(),
				),
			)

			svr.Run()
			return nil
		},
	}

	flags := cmd.Flags()
	addAddressFlag(flags, v)
	addBasePathFlag(flags, v)
	addStorageBucketFlag(flags, v)
	addStoragePrefixFlag(flags, v)
	addStorageDirFlag(flags, v)
	addAdminPasswordFlag(flags, v)
	addAuthDelayFlag(flags, v)
	addTokenTTLFlag(flags, v)
	addCorsAllowedOriginsFlag(flags, v)
	addGracefulPeriodFlag(flags, v)
	addServiceHealthzEnabledFlag(flags, v)
	addServicePrometheusEnabledFlag(flags, v)
	addServicePProfEnabledFlag(flags, v)

	return cmd
}

// supportedBlobSchemes lists the URL schemes supported for durable note storage
var supportedBlobSchemes = []string{"gs://", "s3://", "azblob://"}

// createStorage selects the note storage backend based on the configuration:
// a blob bucket when one is configured, a local directory when given, and the
// non-persistent fallback otherwise.
func createStorage(ctx context.Context, v *viper.Viper, l *zap.Logger) (repo.Storage, error) {
	bucket := storageBucketFlag(v)
	prefix := storagePrefixFlag(v)
	dir := storageDirFlag(v)

	switch {
	case bucket != "":
		if !isValidBlobScheme(bucket) {
			return nil, fmt.Errorf("unsupported blob storage URL scheme in %q; supported schemes: %s",
				bucket, strings.Join(supportedBlobSchemes, ", "))
		}
		l.Info("using blob storage",
			zap.String("bucket", bucket),
			zap.String("prefix", prefix),
			zap.String("provider", detectBlobProvider(bucket)),
		)
		return repo.NewBlobStorage(ctx, bucket, prefix)
	case dir != "":
		l.Info("using filesystem storage", zap.String("dir", dir))
		return repo.NewFilesystemStorage(dir)
	default:
		l.Warn("no durable storage configured, notes will not be retained")
		return repo.NewEphemeralStorage(), nil
	}
}

// isValidBlobScheme checks if the bucket URL has a supported scheme
func isValidBlobScheme(bucketURL string) bool {
	for _, scheme := range supportedBlobSchemes {
		if strings.HasPrefix(bucketURL, scheme) {
			return true
		}
	}
	return false
}

// detectBlobProvider returns a human-readable provider name from the URL scheme
func detectBlobProvider(bucketURL string) string {
	switch {
	case strings.HasPrefix(bucketURL, "gs://"):
		return "Google Cloud Storage"
	case strings.HasPrefix(bucketURL, "s3://"):
		return "AWS S3"
	case strings.HasPrefix(bucketURL, "azblob://"):
		return "Azure Blob Storage"
	default:
		return "unknown"
	}
}
