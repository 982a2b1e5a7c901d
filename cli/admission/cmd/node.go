package cmd

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ainvaltin/httpsrv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/alphabill-org/admission/admission"
	"github.com/alphabill-org/admission/contract"
	"github.com/alphabill-org/admission/fees"
	"github.com/alphabill-org/admission/logger"
	"github.com/alphabill-org/admission/platform"
	"github.com/alphabill-org/admission/precheck"
	"github.com/alphabill-org/admission/queries"
	"github.com/alphabill-org/admission/records"
	"github.com/alphabill-org/admission/rpc"
	"github.com/alphabill-org/admission/state"
	"github.com/alphabill-org/admission/stats"
	"github.com/alphabill-org/admission/submission"
	"github.com/alphabill-org/admission/txbuffer"
	"github.com/alphabill-org/admission/types"
)

const (
	defaultFeeScheduleFile   = "fee-schedule.yaml"
	defaultExchangeRatesFile = "exchange-rates.yaml"
	defaultTxBufferSize      = 1000

	keyStateDB       = "state-db"
	keyGenesis       = "genesis"
	keyFeeSchedule   = "fee-schedule"
	keyExchangeRates = "exchange-rates"
)

type nodeConfiguration struct {
	Base *baseConfiguration

	// NodeAccount is the account of the node in "shard.realm.num" format,
	// query payments must transfer the fee to this account.
	NodeAccount string
	ZeroStake   bool

	TxBufferSize            uint
	RecordCacheSize         int
	RecordTTL               time.Duration
	MinAutoRenew            time.Duration
	MaxAutoRenew            time.Duration
	MinValidDuration        time.Duration
	MaxValidDuration        time.Duration
	MaxMemoBytes            int
	LocalCallEstReturnBytes int

	FeeSchedule   string
	ExchangeRates string
	// StateDB is the bolt database file of the entity store, the store is
	// kept in memory when empty.
	StateDB string
	// Genesis file imported into the entity store on startup.
	Genesis string

	GRPCServer *grpcServerConfiguration
	RPCServer  *rpc.ServerConfiguration
}

func newNodeCmd(baseConfig *baseConfiguration, runFunc nodeRunnable) *cobra.Command {
	var nodeCmd = &cobra.Command{
		Use:   "node",
		Short: "Manages the admission node",
	}
	nodeCmd.AddCommand(newNodeRunCmd(baseConfig, runFunc))
	return nodeCmd
}

// newNodeRunCmd creates the command which starts the node.
//
// runFunc - set the function to override the default behaviour. Meant for tests.
func newNodeRunCmd(baseConfig *baseConfiguration, runFunc nodeRunnable) *cobra.Command {
	config := &nodeConfiguration{
		Base:       baseConfig,
		GRPCServer: &grpcServerConfiguration{},
		RPCServer:  &rpc.ServerConfiguration{},
	}
	var cmd = &cobra.Command{
		Use:   "run",
		Short: "Starts the admission node",
		Long:  `Starts the admission node: gRPC smart contract service, JSON-RPC and REST endpoints and the platform intake processor.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runFunc != nil {
				return runFunc(cmd.Context(), config)
			}
			return runNode(cmd.Context(), config)
		},
	}

	cmd.Flags().StringVar(&config.NodeAccount, "node-account", "0.0.3", "account of the node, query payments are transferred to it")
	cmd.Flags().BoolVar(&config.ZeroStake, "zero-stake", false, "node has no stake, it doesn't accept transactions nor paid queries")
	cmd.Flags().UintVar(&config.TxBufferSize, "tx-buffer-size", defaultTxBufferSize, "maximum number of transactions waiting in the platform intake")
	cmd.Flags().IntVar(&config.RecordCacheSize, "record-cache-size", records.DefaultSize, "maximum number of submitted transaction ids remembered for duplicate detection")
	cmd.Flags().DurationVar(&config.RecordTTL, "record-ttl", records.DefaultTTL, "for how long submitted transaction ids are remembered")
	cmd.Flags().DurationVar(&config.MinAutoRenew, "min-autorenew-duration", admission.DefaultMinAutoRenew*time.Second, "minimum auto renew period of a contract")
	cmd.Flags().DurationVar(&config.MaxAutoRenew, "max-autorenew-duration", admission.DefaultMaxAutoRenew*time.Second, "maximum auto renew period of a contract")
	cmd.Flags().DurationVar(&config.MinValidDuration, "min-valid-duration", precheck.DefaultMinValidDuration, "minimum validity window of a transaction")
	cmd.Flags().DurationVar(&config.MaxValidDuration, "max-valid-duration", precheck.DefaultMaxValidDuration, "maximum validity window of a transaction")
	cmd.Flags().IntVar(&config.MaxMemoBytes, "max-memo-bytes", precheck.DefaultMaxMemoBytes, "maximum size of the transaction memo in bytes")
	cmd.Flags().IntVar(&config.LocalCallEstReturnBytes, "local-call-est-return-bytes", admission.DefaultLocalCallEstReturnBytes, "result size assumed when pricing local call cost answers")
	cmd.Flags().StringVar(&config.FeeSchedule, keyFeeSchedule, defaultFeeScheduleFile, "fee schedule file. Considered absolute if starts with '/'. Otherwise relative from $ADM_HOME.")
	cmd.Flags().StringVar(&config.ExchangeRates, keyExchangeRates, defaultExchangeRatesFile, "exchange rates file. Considered absolute if starts with '/'. Otherwise relative from $ADM_HOME.")
	cmd.Flags().StringVar(&config.StateDB, keyStateDB, "", "entity store database file, entities are kept in memory when not set")
	cmd.Flags().StringVar(&config.Genesis, keyGenesis, "", "genesis file with entities imported into the store on startup")

	config.GRPCServer.addConfigurationFlags(cmd)
	addRPCServerFlags(cmd, config.RPCServer)
	return cmd
}

func (cfg *nodeConfiguration) admissionConfig() admission.Config {
	return admission.Config{
		MinAutoRenew:            types.DurationOf(cfg.MinAutoRenew),
		MaxAutoRenew:            types.DurationOf(cfg.MaxAutoRenew),
		LocalCallEstReturnBytes: cfg.LocalCallEstReturnBytes,
		IsStaked:                !cfg.ZeroStake,
	}
}

// loadFeeData loads the fee schedules and the exchange rates of the node.
func loadFeeData(base *baseConfiguration, scheduleFile, ratesFile string) (*fees.ScheduleProvider, *fees.RateProvider, error) {
	schedules, err := fees.LoadFeeSchedules(base.pathInHome(scheduleFile))
	if err != nil {
		return nil, nil, err
	}
	prices, err := fees.NewScheduleProvider(schedules)
	if err != nil {
		return nil, nil, fmt.Errorf("creating price provider: %w", err)
	}
	rateSet, err := fees.LoadExchangeRates(base.pathInHome(ratesFile))
	if err != nil {
		return nil, nil, err
	}
	rates, err := fees.NewRateProvider(rateSet)
	if err != nil {
		return nil, nil, fmt.Errorf("creating exchange rate provider: %w", err)
	}
	return prices, rates, nil
}

type node struct {
	service  *admission.Service
	buffer   *txbuffer.TxBuffer
	handler  *platform.Handler
	counters *stats.OpCounters
	prices   *fees.ScheduleProvider
	rates    *fees.RateProvider
	account  types.AccountID
}

/*
newNode builds the admission pipeline on top of the entity store: precheck,
submission into the transaction buffer and the query answers.
*/
func newNode(cfg *nodeConfiguration, store state.Store, obs Observability) (*node, error) {
	log := obs.Logger()
	account, err := types.ParseAccountID(cfg.NodeAccount)
	if err != nil {
		return nil, fmt.Errorf("invalid node account: %w", err)
	}
	prices, rates, err := loadFeeData(cfg.Base, cfg.FeeSchedule, cfg.ExchangeRates)
	if err != nil {
		return nil, err
	}

	cache := records.New(cfg.RecordCacheSize, cfg.RecordTTL)
	validator, err := precheck.NewValidator(account, store, prices, rates,
		precheck.WithDuplicateChecker(cache),
		precheck.WithValidDurationBounds(cfg.MinValidDuration, cfg.MaxValidDuration),
		precheck.WithMaxMemoBytes(cfg.MaxMemoBytes),
		precheck.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("creating precheck validator: %w", err)
	}

	buf, err := txbuffer.New(cfg.TxBufferSize, crypto.SHA256, obs)
	if err != nil {
		return nil, fmt.Errorf("creating transaction buffer: %w", err)
	}
	manager, err := submission.NewManager(buf, cache, obs)
	if err != nil {
		return nil, fmt.Errorf("creating submission manager: %w", err)
	}

	counters := stats.NewOpCounters()
	if err := counters.RegisterWith(obs.Meter("admission")); err != nil {
		return nil, fmt.Errorf("registering operation counters: %w", err)
	}
	helper, err := queries.NewHelper(validator, prices, rates, manager, counters, !cfg.ZeroStake, log)
	if err != nil {
		return nil, fmt.Errorf("creating query helper: %w", err)
	}

	svc, err := admission.New(cfg.admissionConfig(), admission.Components{
		Validator: validator,
		Prices:    prices,
		Rates:     rates,
		Submitter: manager,
		Counters:  counters,
		Executor:  contract.NewExecutor(store, log),
		Answerer:  helper,
		Answers: admission.ContractAnswers{
			Info:     queries.NewGetInfoAnswer(store, log),
			Bytecode: queries.NewGetBytecodeAnswer(store, log),
			Records:  queries.NewGetRecordsAnswer(store, log),
		},
	}, obs)
	if err != nil {
		return nil, fmt.Errorf("creating admission service: %w", err)
	}

	handler, err := platform.NewHandler(store, counters, cache, obs)
	if err != nil {
		return nil, fmt.Errorf("creating platform handler: %w", err)
	}

	return &node{
		service:  svc,
		buffer:   buf,
		handler:  handler,
		counters: counters,
		prices:   prices,
		rates:    rates,
		account:  account,
	}, nil
}

func runNode(ctx context.Context, cfg *nodeConfiguration) error {
	obs := cfg.Base.observe
	log := obs.Logger()

	store, err := openStore(cfg.Base.pathInHomeIfSet(cfg.StateDB))
	if err != nil {
		return fmt.Errorf("opening entity store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WarnContext(ctx, "closing entity store", logger.Error(err))
		}
	}()
	if cfg.Genesis != "" {
		if err := importGenesis(store, cfg.Base.pathInHome(cfg.Genesis)); err != nil {
			return err
		}
	}

	n, err := newNode(cfg, store, obs)
	if err != nil {
		return fmt.Errorf("failed to create node: %w", err)
	}
	log.InfoContext(ctx, "starting admission node", logger.NodeAccount(n.account))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return n.handler.ProcessTransactions(ctx, n.buffer) })

	g.Go(func() error { return runGRPCServer(ctx, cfg.GRPCServer, n.service, obs) })

	g.Go(func() error {
		if cfg.RPCServer.IsAddressEmpty() {
			return nil // return nil in this case in order not to kill the group!
		}
		rpcCfg := *cfg.RPCServer
		rpcCfg.APIs = []rpc.API{
			{
				Namespace: "admission",
				Service:   rpc.NewAdmissionAPI(n.counters, n.rates, n.prices, n.account, obs.Meter("jrpc_api"), log),
			},
		}
		server, err := rpc.NewHTTPServer(&rpcCfg, obs, rpc.AdmissionEndpoints(n.counters, n.rates, n.prices, log))
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "RPC server starting on "+server.Addr)
		return httpsrv.Run(ctx, *server, httpsrv.ShutdownTimeout(5*time.Second))
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.InfoContext(ctx, "admission node stopped")
	return nil
}

func runGRPCServer(ctx context.Context, cfg *grpcServerConfiguration, svc *admission.Service, obs Observability) error {
	log := obs.Logger()
	grpcServer, err := initRPCServer(svc, cfg, obs)
	if err != nil {
		return err
	}
	listener, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("creating gRPC listener: %w", err)
	}

	errch := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "gRPC server starting on "+listener.Addr().String())
		errch <- grpcServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		grpcServer.GracefulStop()
		if err := <-errch; err != nil {
			log.WarnContext(ctx, "gRPC server exited with error", logger.Error(err))
		} else {
			log.InfoContext(ctx, "gRPC server exited")
		}
		return ctx.Err()
	case err := <-errch:
		return err
	}
}

func initRPCServer(svc *admission.Service, cfg *grpcServerConfiguration, obs Observability) (*grpc.Server, error) {
	opts := append(cfg.serverOptions(),
		grpc.ChainUnaryInterceptor(rpc.InstrumentMetricsUnaryServerInterceptor(obs.Meter(rpc.MetricsScopeGRPCAPI), obs.Logger())))
	grpcServer := grpc.NewServer(opts...)
	grpc_health_v1.RegisterHealthServer(grpcServer, health.NewServer())

	rpcServer, err := rpc.NewGRPCServer(svc, obs)
	if err != nil {
		return nil, err
	}
	rpc.RegisterSmartContractServer(grpcServer, rpcServer)
	return grpcServer, nil
}

type closableStore interface {
	state.Store
	Close() error
}

type memoryStore struct {
	*state.Memory
}

func (memoryStore) Close() error { return nil }

// openStore opens bolt database store, empty filename opens in-memory store.
func openStore(filename string) (closableStore, error) {
	if filename == "" {
		return memoryStore{state.NewMemory()}, nil
	}
	return boltStore(filename)
}

func importGenesis(w state.Writer, filename string) error {
	g, err := state.LoadGenesis(filename)
	if err != nil {
		return err
	}
	if err := state.Import(w, g); err != nil {
		return fmt.Errorf("importing genesis: %w", err)
	}
	return nil
}
