package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"subpay-indexer.backend/internal/interfaces/http/handlers"
)

// RouteDeps collects every handler the Query Interface's HTTP surface
// dispatches to, mirroring the teacher's routeDeps wiring struct.
type RouteDeps struct {
	Subscription *handlers.SubscriptionHandler
	Metadata     *handlers.MetadataHandler
	Hash         *handlers.HashHandler
	Health       *handlers.HealthHandler
}

// RegisterRoutes mounts every Query Interface endpoint from spec.md
// §4.8 plus the supplemented /healthz, /metadata, /subscriptions/hash
// and /metrics endpoints (SPEC_FULL.md §6/§9).
func RegisterRoutes(r *gin.Engine, d RouteDeps) {
	r.GET("/healthz", d.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/metadata", d.Metadata.Store)
	r.GET("/subscriptions/hash", d.Hash.Compute)

	subs := r.Group("/subscriptions")
	{
		subs.GET("", d.Subscription.ListAll)
		subs.GET("/by-user/:userAddress", d.Subscription.ListByUser)
		subs.GET("/by-merchant/:chainId/:merchantDomain", d.Subscription.ListByMerchant)
		subs.GET("/by-merchant/:chainId/:merchantDomain/user/:userAddress", d.Subscription.ListByMerchantAndUser)
		subs.GET("/by-merchant/:chainId/:merchantDomain/subscription-id/:subscriptionId", d.Subscription.ListByMerchantAndSubscriptionID)
		subs.GET("/:chainId/:hash", d.Subscription.GetByHash)
		subs.GET("/:chainId/:hash/logs", d.Subscription.ListLogs)
	}
}
