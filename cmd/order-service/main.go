// cmd/order-service/main.go
package main

import (
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"

	"stockpile/internal/pkg/bootstrap"
	"stockpile/internal/pkg/httpclient"
	"stockpile/internal/service/order/application"
	"stockpile/internal/service/order/infrastructure"
	"stockpile/internal/service/order/infrastructure/adapter"
	"stockpile/internal/service/order/interfaces"
)

const serviceName = "order-service"

// main 是订单服务的组装根：创建并组装所有依赖，然后启动。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        getEnvInt("ORDER_PORT", 8081),
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			tracer := otel.Tracer(serviceName)

			client := httpclient.NewClient(tracer)
			inventoryAdapter := adapter.NewInventoryHTTPAdapter(
				client,
				appCtx.Config.Services.InventoryBaseURL,
				time.Duration(appCtx.Config.Services.StockCallTimeout),
			)
			orderRepo := infrastructure.NewInMemoryOrderRepository()

			service := application.NewOrderApplicationService(orderRepo, inventoryAdapter, tracer)
			handler := interfaces.NewOrderHandler(service)
			handler.RegisterRoutes(appCtx.Router)
		},
	})
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
