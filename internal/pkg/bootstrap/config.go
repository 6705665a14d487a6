// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration 让 YAML 里可以写 "5s" 这样的时长字面量（也接受毫秒整数）。
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if dur, err := time.ParseDuration(s); err == nil {
		*d = Duration(dur)
		return nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// Config 聚合了所有服务共享的配置项。
// 加载顺序：编译期默认值 -> CONFIG_FILE 指向的 YAML 文件 -> 环境变量覆盖。
type Config struct {
	Infra struct {
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
	} `yaml:"infra"`

	Services struct {
		// InventoryBaseURL 是库存服务的根地址，订单服务通过它发起预占调用。
		InventoryBaseURL string `yaml:"inventoryBaseUrl"`
		// StockCallTimeout 限定单次库存调用的耗时上限，超时视为 check_failed。
		StockCallTimeout Duration `yaml:"stockCallTimeout"`
	} `yaml:"services"`
}

var (
	currentConfig Config
	configOnce    sync.Once
)

func defaultConfig() Config {
	var cfg Config
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Services.InventoryBaseURL = "http://localhost:8082"
	cfg.Services.StockCallTimeout = Duration(5 * time.Second)
	return cfg
}

// LoadConfig 按照默认值 -> YAML -> 环境变量的顺序装配配置。
// YAML 文件缺失不是错误：纯环境变量部署（容器场景）依然可用。
func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if v := os.Getenv("JAEGER_ENDPOINT"); v != "" {
		cfg.Infra.Jaeger.Endpoint = v
	}
	if v := os.Getenv("INVENTORY_SERVICE_URL"); v != "" {
		cfg.Services.InventoryBaseURL = v
	}
	if v := os.Getenv("STOCK_CALL_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Services.StockCallTimeout = Duration(time.Duration(ms) * time.Millisecond)
		}
	}

	return cfg, nil
}

// GetCurrentConfig 返回进程级配置。首次调用时完成装配。
func GetCurrentConfig() Config {
	configOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			cfg = defaultConfig()
		}
		currentConfig = cfg
	})
	return currentConfig
}
