// Package http exposes a small REST surface that maps onto the manager
// handle's operations, for driving a gateway from scripts and dashboards.
package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Mixer/internal/bridge"
	"github.com/dkeye/Mixer/internal/config"
	"github.com/dkeye/Mixer/internal/domain"
)

type Controller struct {
	Handle  *bridge.Handle
	Timeout time.Duration
	Secret  string
}

// parseID maps a path segment onto a gateway identifier, numeric when it
// parses as one.
func parseID(s string) domain.ID {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return domain.NumericID(n)
	}
	return domain.StringID(s)
}

func (ctl *Controller) admin() *bridge.AdminOptions {
	if ctl.Secret == "" {
		return nil
	}
	return &bridge.AdminOptions{Secret: bridge.Ptr(ctl.Secret)}
}

func (ctl *Controller) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), ctl.Timeout)
}

func respond(c *gin.Context, data any, err error) {
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("operation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}

func SetupRouter(cfg *config.Config, ctl *Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	api.GET("/rooms", func(c *gin.Context) {
		ctx, cancel := ctl.ctx(c)
		defer cancel()
		list, err := ctl.Handle.ListRooms(ctx)
		respond(c, list, err)
	})

	api.POST("/rooms", func(c *gin.Context) {
		var body struct {
			Room         string  `json:"room" binding:"required"`
			Description  *string `json:"description"`
			SamplingRate *int    `json:"sampling_rate"`
			Permanent    *bool   `json:"permanent"`
			Private      *bool   `json:"is_private"`
			PIN          *string `json:"pin"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts := bridge.CreateOptions{
			Room:         parseID(body.Room),
			Description:  body.Description,
			SamplingRate: body.SamplingRate,
			Permanent:    body.Permanent,
			Private:      body.Private,
			PIN:          body.PIN,
		}
		if ctl.Secret != "" {
			opts.Secret = bridge.Ptr(ctl.Secret)
		}
		ctx, cancel := ctl.ctx(c)
		defer cancel()
		created, err := ctl.Handle.Create(ctx, opts)
		respond(c, created, err)
	})

	api.DELETE("/rooms/:room", func(c *gin.Context) {
		opts := bridge.DestroyOptions{}
		if ctl.Secret != "" {
			opts.Secret = bridge.Ptr(ctl.Secret)
		}
		ctx, cancel := ctl.ctx(c)
		defer cancel()
		destroyed, err := ctl.Handle.Destroy(ctx, parseID(c.Param("room")), opts)
		respond(c, destroyed, err)
	})

	api.GET("/rooms/:room/exists", func(c *gin.Context) {
		ctx, cancel := ctl.ctx(c)
		defer cancel()
		exists, err := ctl.Handle.Exists(ctx, parseID(c.Param("room")))
		respond(c, exists, err)
	})

	api.GET("/rooms/:room/participants", func(c *gin.Context) {
		ctx, cancel := ctl.ctx(c)
		defer cancel()
		roster, err := ctl.Handle.ListParticipants(ctx, parseID(c.Param("room")), ctl.admin())
		respond(c, roster, err)
	})

	api.POST("/rooms/:room/kick", func(c *gin.Context) {
		var body struct {
			Feed string `json:"feed" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx, cancel := ctl.ctx(c)
		defer cancel()
		kicked, err := ctl.Handle.Kick(ctx, parseID(c.Param("room")), parseID(body.Feed), ctl.admin())
		respond(c, kicked, err)
	})

	api.GET("/rooms/:room/forwarders", func(c *gin.Context) {
		ctx, cancel := ctl.ctx(c)
		defer cancel()
		fwds, err := ctl.Handle.ListForward(ctx, parseID(c.Param("room")), ctl.admin())
		respond(c, fwds, err)
	})

	api.POST("/rooms/:room/forwarders", func(c *gin.Context) {
		var body struct {
			Host   string  `json:"host" binding:"required"`
			Port   int     `json:"port" binding:"required"`
			Always *bool   `json:"always_on"`
			Group  *string `json:"group"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts := bridge.ForwardOptions{
			Room:   parseID(c.Param("room")),
			Host:   body.Host,
			Port:   body.Port,
			Always: body.Always,
			Group:  body.Group,
		}
		if ctl.Secret != "" {
			opts.Secret = bridge.Ptr(ctl.Secret)
		}
		ctx, cancel := ctl.ctx(c)
		defer cancel()
		fwd, err := ctl.Handle.StartForward(ctx, opts)
		respond(c, fwd, err)
	})

	api.DELETE("/rooms/:room/forwarders/:stream", func(c *gin.Context) {
		ctx, cancel := ctl.ctx(c)
		defer cancel()
		fwd, err := ctl.Handle.StopForward(ctx, parseID(c.Param("room")), parseID(c.Param("stream")), ctl.admin())
		respond(c, fwd, err)
	})

	return r
}
