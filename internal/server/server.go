package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wx-shi/shadow-ledger/internal/config"
	"github.com/wx-shi/shadow-ledger/internal/db"
	"github.com/wx-shi/shadow-ledger/internal/indexer"
	"github.com/wx-shi/shadow-ledger/internal/rpc"
	"github.com/wx-shi/shadow-ledger/pkg"
	"go.uber.org/zap"
)

const (
	// readTimeout is the maximum duration for reading the entire
	// request, including the body.
	readTimeout = time.Minute

	// writeTimeout bounds a whole response, which in replay mode
	// includes scanning the chain.
	writeTimeout = 5 * time.Minute

	// idleTimeout is the maximum amount of time to wait for the
	// next request when keep-alives are enabled.
	idleTimeout = 5 * time.Minute
)

type Server struct {
	conf     *config.ServerConfig
	logger   *zap.Logger
	balances indexer.BalanceService
	// db is nil in replay mode; nothing is projected then.
	db     db.Store
	rpc    rpc.BlockSource
	engine *gin.Engine
	hs     *http.Server
}

func NewServer(conf *config.ServerConfig, logger *zap.Logger,
	balances indexer.BalanceService, store db.Store, source rpc.BlockSource) *Server {

	s := &Server{
		conf:     conf,
		logger:   logger,
		balances: balances,
		db:       store,
		rpc:      source,
	}

	s.initGin()
	return s
}

func (s *Server) initGin() {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(pkg.LogMiddleware(s.logger), pkg.CORSMiddleware(), gin.Recovery())

	v1 := engine.Group("/api/v1")
	v1.GET("/address/:address/balance", s.balanceHandle())
	v1.GET("/height", s.heightHandle())
	v1.GET("/defects", s.defectsHandle())
	engine.NoRoute(func(ctx *gin.Context) {
		ctx.String(http.StatusNotFound, "Not Found")
	})
	s.engine = engine
}

// Handler exposes the routes without listening.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run() {
	addr := fmt.Sprintf("%s:%d", s.conf.Host, s.conf.Port)
	hs := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	s.hs = hs

	go func() {
		if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("listen", zap.Error(err))
		}
	}()
	s.logger.Info("listen", zap.String("addr", addr))

}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.hs == nil {
		return nil
	}
	return s.hs.Shutdown(ctx)
}
