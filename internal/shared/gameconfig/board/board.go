package board

import (
	"reflect"

	"Pandemic/internal/contagion/domain"
	"Pandemic/internal/contagion/entity"
	"Pandemic/internal/shared/config"

	"github.com/go-viper/mapstructure/v2"
)

// Load 读取开局地图配置（yaml/json），颜色和疾病状态在解码阶段就做校验。
func Load(path string) (entity.Setup, error) {
	var setup entity.Setup
	err := config.Load(path, &setup,
		config.WithDecodeHook(colorHook()),
		config.WithDecodeHook(statusHook()),
	)
	if err != nil {
		return entity.Setup{}, err
	}
	return setup, nil
}

var (
	colorType  = reflect.TypeOf(domain.Color(""))
	statusType = reflect.TypeOf(domain.DiseaseStatus(""))
)

func colorHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != colorType {
			return data, nil
		}
		return domain.ParseColor(data.(string))
	}
}

func statusHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != statusType {
			return data, nil
		}
		return domain.ParseDiseaseStatus(data.(string))
	}
}
