package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"tadoba-control-go/internal/config"
	"tadoba-control-go/internal/helpers"
	"tadoba-control-go/internal/logging"
	"tadoba-control-go/internal/models"
	"tadoba-control-go/internal/services/detection"
	"tadoba-control-go/internal/services/dispatch"
	"tadoba-control-go/internal/services/fanout"
	"tadoba-control-go/internal/services/gateway"
	"tadoba-control-go/internal/services/messaging"
	"tadoba-control-go/internal/services/pipeline"
	"tadoba-control-go/internal/services/postprocessing"
	"tadoba-control-go/internal/services/registry"
	"tadoba-control-go/internal/services/snapshot"
	"tadoba-control-go/internal/storage"
	"tadoba-control-go/internal/storage/memory"
	"tadoba-control-go/internal/storage/postgres"
	"tadoba-control-go/internal/zoneindex"
)

// ZoneFinder answers both zone queries, from memory or from PostGIS
type ZoneFinder interface {
	FindContainingZone(ctx context.Context, lat, lon float64) (*models.Zone, error)
	FindZonesWithin(ctx context.Context, lat, lon, meters float64) ([]models.ZoneDistance, error)
}

// ServiceContainer holds all services
type ServiceContainer struct {
	Config *config.Config

	Store     storage.Store
	ZoneIndex *zoneindex.Index
	Zones     ZoneFinder
	Registry  *registry.Registry
	Router    *dispatch.Router
	Hub       *fanout.Hub
	Alerts    *postprocessing.Service
	Snapshots *snapshot.Service
	Pipeline  *pipeline.Pipeline
	Gateway   *gateway.Gateway

	// Optional collaborators, nil when not configured
	DetectionSvc *detection.Service
	Messaging    *messaging.Service
	Ingress      *messaging.Ingress

	refresher *zoneindex.Refresher
	cancel    context.CancelFunc
	group     *errgroup.Group
}

// NewServiceContainer creates a new service container
func NewServiceContainer(ctx context.Context, cfg *config.Config) (*ServiceContainer, error) {
	sc := &ServiceContainer{Config: cfg, Registry: registry.New()}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sc.Store = store

	if err := sc.setupZones(ctx, cfg); err != nil {
		store.Close()
		return nil, err
	}

	sc.Router = dispatch.NewRouter(sc.Registry, registry.WorkerType(cfg.DetectionWorkerType), dispatch.Options{
		RateLimit: cfg.FrameRateLimit,
		RateBurst: cfg.FrameRateBurst,
		Cache:     dispatch.NewFrameCache(cfg.FrameCacheSize, cfg.FrameCacheTTL),
	}, logging.NewServiceLogger(cfg, "dispatch"))

	sc.Hub = fanout.NewHub(cfg.ObserverBuffer, logging.NewServiceLogger(cfg, "fanout"))
	sc.Alerts = postprocessing.NewService(cfg, logging.NewServiceLogger(cfg, "alerts"))

	deps := pipeline.Deps{
		Store:     store,
		Zones:     sc.Zones,
		Frames:    sc.Router.Cache(),
		Alerts:    sc.Alerts,
		Events:    sc.Hub,
		Telemetry: sc.Hub.Telemetry(),
	}

	sc.Snapshots, err = newSnapshots(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	if sc.Snapshots != nil {
		deps.Snapshots = sc.Snapshots
	}

	sc.Pipeline = pipeline.New(deps, cfg.ClassesOfInterest, cfg.PipelineConcurrency, logging.NewServiceLogger(cfg, "pipeline"))

	if cfg.AIGRPCURL != "" {
		sc.DetectionSvc, err = detection.NewService(cfg.AIGRPCURL, cfg.AIGRPCMethod)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	if err := sc.setupSink(ctx, cfg); err != nil {
		store.Close()
		return nil, err
	}

	sc.Gateway = gateway.New(sc.Registry, sc.Router, sc.Pipeline, sc.Hub, gateway.Options{
		SendBuffer:   cfg.SessionSendBuffer,
		ReadLimit:    cfg.WSReadLimit,
		PingInterval: cfg.WSPingInterval,
	}, logging.NewServiceLogger(cfg, "gateway"))

	runCtx, cancel := context.WithCancel(context.Background())
	sc.cancel = cancel
	sc.group, runCtx = errgroup.WithContext(runCtx)
	sc.group.Go(func() error {
		sc.Alerts.Run(runCtx)
		return nil
	})
	if sc.refresher != nil {
		sc.group.Go(func() error {
			sc.refresher.Run(runCtx)
			return nil
		})
	}
	if sc.Ingress != nil {
		if err := sc.Ingress.Start(runCtx); err != nil {
			log.Error().Err(err).Msg("Failed to subscribe to NATS ingress")
		}
	}

	log.Info().
		Str("store", cfg.StoreDriver).
		Str("zone_lookup", cfg.ZoneLookup).
		Str("snapshots", cfg.SnapshotStore).
		Str("event_sink", cfg.EventSink).
		Bool("detector", sc.DetectionSvc != nil).
		Int("classes", len(cfg.ClassesOfInterest)).
		Msg("Service container initialized")

	return sc, nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		if _, err := os.Stat(cfg.SeedFile); err != nil {
			log.Warn().Str("seed_file", cfg.SeedFile).Msg("Seed file not found, starting with an empty store")
			return memory.New(), nil
		}
		store, err := memory.LoadFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("seed_file", cfg.SeedFile).
			Int("zones", len(store.Zones())).
			Int("cameras", len(store.Cameras())).
			Msg("Loaded in-memory store")
		return store, nil

	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres store")
		}
		store, err := postgres.Open(cfg.DatabaseURL, postgres.Options{
			MaxConns:      cfg.DBMaxConns,
			SlowThreshold: cfg.DBSlowQuery,
			AutoMigrate:   true,
		}, logging.NewServiceLogger(cfg, "postgres"))
		if err != nil {
			return nil, err
		}
		if err := seedPostgres(ctx, store, cfg.SeedFile); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// seedPostgres upserts the zones and cameras of the seed file, if present
func seedPostgres(ctx context.Context, store *postgres.Store, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	seed, err := memory.LoadFile(path)
	if err != nil {
		return err
	}
	for _, z := range seed.Zones() {
		if err := store.UpsertZone(ctx, z); err != nil {
			return fmt.Errorf("seed zone %d: %w", z.ID, err)
		}
	}
	for _, c := range seed.Cameras() {
		if err := store.UpsertCamera(ctx, c); err != nil {
			return fmt.Errorf("seed camera %d: %w", c.ID, err)
		}
	}
	log.Info().Str("seed_file", path).Int("zones", len(seed.Zones())).Int("cameras", len(seed.Cameras())).Msg("Seeded PostgreSQL")
	return nil
}

func (sc *ServiceContainer) setupZones(ctx context.Context, cfg *config.Config) error {
	switch cfg.ZoneLookup {
	case "memory":
		sc.ZoneIndex = zoneindex.New()
		sc.refresher = zoneindex.NewRefresher(sc.ZoneIndex, sc.Store, cfg.ZoneRefreshInterval, logging.NewServiceLogger(cfg, "zones"))
		if err := sc.refresher.Load(ctx); err != nil {
			return fmt.Errorf("load zones: %w", err)
		}
		sc.Zones = zoneindex.Locator{Index: sc.ZoneIndex}
	case "postgis":
		pg, ok := sc.Store.(*postgres.Store)
		if !ok {
			return errors.New("ZONE_LOOKUP=postgis requires STORE_DRIVER=postgres")
		}
		sc.Zones = pg
	default:
		return fmt.Errorf("unknown ZONE_LOOKUP %q", cfg.ZoneLookup)
	}
	return nil
}

func newSnapshots(ctx context.Context, cfg *config.Config) (*snapshot.Service, error) {
	var store snapshot.ObjectStore
	switch cfg.SnapshotStore {
	case "none", "":
		return nil, nil
	case "local":
		local, err := snapshot.NewLocalStore(cfg.SnapshotDir)
		if err != nil {
			return nil, err
		}
		store = local
	case "minio":
		remote, err := snapshot.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioSecure)
		if err != nil {
			return nil, err
		}
		store = remote
	default:
		return nil, fmt.Errorf("unknown SNAPSHOT_STORE %q", cfg.SnapshotStore)
	}
	return snapshot.NewService(helpers.AnnotateJPEG, store, cfg.SnapshotQuality, logging.NewServiceLogger(cfg, "snapshot")), nil
}

func (sc *ServiceContainer) setupSink(ctx context.Context, cfg *config.Config) error {
	switch cfg.EventSink {
	case "none", "":
		return nil
	case "nats":
		svc, err := messaging.NewService(cfg)
		if err != nil {
			return fmt.Errorf("connect NATS: %w", err)
		}
		sc.Messaging = svc
		sc.Hub.AttachSink(svc, 1024)
		sc.Ingress = messaging.NewIngress(svc, cfg.NatsSubjectPrefix, sc.Router, sc.Pipeline, logging.NewServiceLogger(cfg, "ingress"))
		return nil
	case "kafka":
		sink, err := messaging.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return fmt.Errorf("connect Kafka: %w", err)
		}
		sc.Hub.AttachSink(sink, 1024)
		return nil
	default:
		return fmt.Errorf("unknown EVENT_SINK %q", cfg.EventSink)
	}
}

// Detector returns the synchronous detector, or nil when none is configured
func (sc *ServiceContainer) Detector() pipeline.Detector {
	if sc.DetectionSvc == nil {
		return nil
	}
	return sc.DetectionSvc
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	var errs []error

	if sc.Gateway != nil {
		if err := sc.Gateway.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("gateway: %w", err))
		}
	}
	if sc.Ingress != nil {
		sc.Ingress.Stop()
	}

	if sc.cancel != nil {
		sc.cancel()
		_ = sc.group.Wait()
	}

	if sc.Hub != nil {
		if err := sc.Hub.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("event sink: %w", err))
		}
	}
	if sc.Alerts != nil {
		_ = sc.Alerts.Shutdown(ctx)
	}
	if sc.DetectionSvc != nil {
		_ = sc.DetectionSvc.Shutdown(ctx)
	}
	if sc.Store != nil {
		if err := sc.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	return errors.Join(errs...)
}
