package main

import (
	"net/http"
	"time"

	"github.com/danmuck/usbboot/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var startedAt = time.Now()

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /health, /targets and /metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := root.load(); err != nil {
				return err
			}
			r := newRouter(root)
			log.Info().Str("addr", addr).Msg("status server started")
			return r.Run(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:9300", "listen address")
	return cmd
}

func newRouter(root *rootOptions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	observability.RegisterMetrics()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(startedAt).String(),
			"service": "usbbootctl",
		})
	})
	r.GET("/targets", func(c *gin.Context) {
		env, err := root.load()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out := make([]gin.H, 0, len(env.Targets))
		for _, t := range env.Targets {
			out = append(out, gin.H{
				"name":     t.Name,
				"driver":   t.Driver.Kind,
				"resource": t.Resource.Kind,
				"host":     t.Resource.Host,
			})
		}
		c.JSON(http.StatusOK, out)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
