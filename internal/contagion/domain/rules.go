package domain

// MaxCubesPerCity 单个城市单种颜色最多 3 个方块，第 4 个会变成爆发。
const MaxCubesPerCity = 3

const (
	DefaultCubesPerColor = 24
	DefaultOutbreakLimit = 8
)

// DefaultInfectionRateTrack 感染速率轨道，每次流行病前进一格，到头后保持最后一格。
var DefaultInfectionRateTrack = []int{2, 2, 2, 3, 3, 4, 4}

type Rules struct {
	CubesPerColor      int   `mapstructure:"cubes_per_color"`
	OutbreakLimit      int   `mapstructure:"outbreak_limit"`
	InfectionRateTrack []int `mapstructure:"infection_rate_track"`
}

// WithDefaults 补齐未配置的规则参数。
func (r Rules) WithDefaults() Rules {
	if r.CubesPerColor <= 0 {
		r.CubesPerColor = DefaultCubesPerColor
	}
	if r.OutbreakLimit <= 0 {
		r.OutbreakLimit = DefaultOutbreakLimit
	}
	if len(r.InfectionRateTrack) == 0 {
		r.InfectionRateTrack = append([]int(nil), DefaultInfectionRateTrack...)
	}
	return r
}
