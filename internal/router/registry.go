package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	Logger      *logrus.Logger
	middlewares []gin.HandlerFunc
	modules     []Module
}

func NewRegistry(engine *gin.Engine, logger *logrus.Logger) *Registry {
	api := engine.Group("/api")
	return &Registry{Engine: engine, API: api, Logger: logger}
}

// Use adds middleware that runs only for /api routes.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

// AddIf adds mod when a feature toggle is on.
func (r *Registry) AddIf(enabled bool, mod Module) {
	if enabled {
		r.Add(mod)
	}
}

// Modules returns the names of the added modules in registration order.
func (r *Registry) Modules() []string {
	names := make([]string, 0, len(r.modules))
	for _, m := range r.modules {
		names = append(names, m.Name())
	}
	return names
}

func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	before := len(r.Engine.Routes())
	for _, m := range r.modules {
		m.Register(r.API)
	}
	if r.Logger != nil {
		r.Logger.WithFields(logrus.Fields{
			"modules": r.Modules(),
			"routes":  len(r.Engine.Routes()) - before,
		}).Info("routes registered")
	}
}
