package sink

import (
	"time"

	"github.com/slim-bean/adsb-intercept/pkg/detector"
	"github.com/slim-bean/adsb-intercept/pkg/model"
)

// record is the flat row written by the parquet and CSV sinks.
type record struct {
	TimeMillis           int64   `parquet:"name=time, type=INT64, convertedtype=TIMESTAMP_MILLIS" csv:"time_ms"`
	Time                 string  `parquet:"name=time_rfc3339, type=BYTE_ARRAY, convertedtype=UTF8" csv:"time"`
	RunID                string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8" csv:"run_id"`
	EpisodeID            string  `parquet:"name=episode_id, type=BYTE_ARRAY, convertedtype=UTF8" csv:"episode_id"`
	NewEpisode           bool    `parquet:"name=new_episode, type=BOOLEAN" csv:"new_episode"`
	Source               string  `parquet:"name=source, type=BYTE_ARRAY, convertedtype=UTF8" csv:"source"`
	InterceptorHex       string  `parquet:"name=interceptor_hex, type=BYTE_ARRAY, convertedtype=UTF8" csv:"interceptor_hex"`
	InterceptorLon       float64 `parquet:"name=interceptor_lon, type=DOUBLE" csv:"interceptor_lon"`
	InterceptorLat       float64 `parquet:"name=interceptor_lat, type=DOUBLE" csv:"interceptor_lat"`
	InterceptorAlt       int32   `parquet:"name=interceptor_alt, type=INT32" csv:"interceptor_alt"`
	InterceptorSpeed     float64 `parquet:"name=interceptor_speed, type=DOUBLE" csv:"interceptor_speed"`
	InterceptorMaxSpeed  float64 `parquet:"name=interceptor_max_speed, type=DOUBLE" csv:"interceptor_max_speed"`
	InterceptorFastCount int64   `parquet:"name=interceptor_fast_count, type=INT64" csv:"interceptor_fast_count"`
	InterceptorReg       string  `parquet:"name=interceptor_registration, type=BYTE_ARRAY, convertedtype=UTF8" csv:"interceptor_registration"`
	InterceptorType      string  `parquet:"name=interceptor_type, type=BYTE_ARRAY, convertedtype=UTF8" csv:"interceptor_type"`
	InterceptorCountry   string  `parquet:"name=interceptor_country, type=BYTE_ARRAY, convertedtype=UTF8" csv:"interceptor_country"`
	TargetHex            string  `parquet:"name=target_hex, type=BYTE_ARRAY, convertedtype=UTF8" csv:"target_hex"`
	TargetLon            float64 `parquet:"name=target_lon, type=DOUBLE" csv:"target_lon"`
	TargetLat            float64 `parquet:"name=target_lat, type=DOUBLE" csv:"target_lat"`
	TargetAlt            int32   `parquet:"name=target_alt, type=INT32" csv:"target_alt"`
	TargetSpeed          float64 `parquet:"name=target_speed, type=DOUBLE" csv:"target_speed"`
	TargetReg            string  `parquet:"name=target_registration, type=BYTE_ARRAY, convertedtype=UTF8" csv:"target_registration"`
	TargetType           string  `parquet:"name=target_type, type=BYTE_ARRAY, convertedtype=UTF8" csv:"target_type"`
	TargetCountry        string  `parquet:"name=target_country, type=BYTE_ARRAY, convertedtype=UTF8" csv:"target_country"`
	LateralSeparationFt  float64 `parquet:"name=lateral_separation_ft, type=DOUBLE" csv:"lateral_separation_ft"`
	VerticalSeparationFt int32   `parquet:"name=vertical_separation_ft, type=INT32" csv:"vertical_separation_ft"`
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func regAndType(d *model.Details) (string, string) {
	if d == nil {
		return "", ""
	}
	return str(d.Registration), str(d.TypeCode)
}

func newRecord(ev *detector.Event) record {
	icPos, tgtPos := ev.Interceptor.Current(), ev.Target.Current()
	icReg, icType := regAndType(ev.InterceptorDetails)
	tgtReg, tgtType := regAndType(ev.TargetDetails)
	return record{
		TimeMillis:           ev.Time.UnixMilli(),
		Time:                 ev.Time.UTC().Format(time.RFC3339),
		RunID:                ev.RunID,
		EpisodeID:            ev.EpisodeID,
		NewEpisode:           ev.NewEpisode,
		Source:               ev.Source,
		InterceptorHex:       ev.Interceptor.Hex,
		InterceptorLon:       icPos.Lon(),
		InterceptorLat:       icPos.Lat(),
		InterceptorAlt:       int32(ev.Interceptor.CurAlt),
		InterceptorSpeed:     ev.Interceptor.CurSpeed,
		InterceptorMaxSpeed:  ev.Interceptor.MaxSpeed,
		InterceptorFastCount: int64(ev.Interceptor.FastCount),
		InterceptorReg:       icReg,
		InterceptorType:      icType,
		InterceptorCountry:   ev.InterceptorCountry,
		TargetHex:            ev.Target.Hex,
		TargetLon:            tgtPos.Lon(),
		TargetLat:            tgtPos.Lat(),
		TargetAlt:            int32(ev.Target.CurAlt),
		TargetSpeed:          ev.Target.CurSpeed,
		TargetReg:            tgtReg,
		TargetType:           tgtType,
		TargetCountry:        ev.TargetCountry,
		LateralSeparationFt:  ev.LateralSeparationFt,
		VerticalSeparationFt: int32(ev.VerticalSeparationFt),
	}
}
