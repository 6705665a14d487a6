// cmd/inventory-service/main.go
package main

import (
	"os"
	"strconv"

	"stockpile/internal/pkg/bootstrap"
	"stockpile/internal/service/inventory/application"
	"stockpile/internal/service/inventory/interfaces"
)

const serviceName = "inventory-service"

// seedCatalog 是演示用的初始商品目录。
var seedCatalog = []struct {
	id    string
	name  string
	total int
}{
	{"PROD001", "iPhone 15 Pro", 50},
	{"PROD002", "MacBook Air", 30},
	{"PROD003", "AirPods Pro", 100},
}

// main 是库存服务的组装根：创建并组装所有依赖，然后启动。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        getEnvInt("INVENTORY_PORT", 8082),
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			ledger := application.NewLedger()
			for _, p := range seedCatalog {
				if err := ledger.AddProduct(p.id, p.name, p.total); err != nil {
					panic(err)
				}
			}

			handler := interfaces.NewStockHandler(ledger)
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
