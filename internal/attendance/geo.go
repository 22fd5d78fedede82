package attendance

import (
	"errors"
	"math"
)

const earthRadiusMeters = 6371000

// ErrGeoInputMissing 坐标或半径缺失时拒绝静默通过
var ErrGeoInputMissing = errors.New("invalid location or radius for geo proximity check")

// Coordinate 一个经纬度点
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Proximity 距离判定结果
type Proximity struct {
	DistanceMeters int  `json:"distance_meters"`
	WithinRange    bool `json:"within_range"`
}

// Distance 计算两点间的大圆距离（haversine），向最近整数米取整。
func Distance(a, b Coordinate) int {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	lat1 := toRad(a.Latitude)
	lat2 := toRad(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return int(math.Round(earthRadiusMeters * c))
}

// VerifyProximity 判断上报坐标是否落在目标半径内（边界值算在内）。
// 任一输入缺失都返回错误，由调用方决定是否作为 geo_disabled 标记处理。
func VerifyProximity(reporter, target *Coordinate, radiusMeters int) (Proximity, error) {
	if reporter == nil || target == nil || radiusMeters <= 0 {
		return Proximity{}, ErrGeoInputMissing
	}

	d := Distance(*reporter, *target)
	return Proximity{
		DistanceMeters: d,
		WithinRange:    d <= radiusMeters,
	}, nil
}
