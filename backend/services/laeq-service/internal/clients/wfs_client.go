package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"noisemap/backend/libs/laeq"
	"noisemap/backend/services/laeq-service/internal/models"
)

const (
	sampleGeometry = "coordinate"
	hexGeometry    = "geom"
	pageSize       = 10000
	maxPages       = 100
	cqlTimeLayout  = "2006-01-02T15:04:05Z"
)

var wfsTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// WFSConfig selects the GeoServer layers to query.
type WFSConfig struct {
	SampleTypeName string
	HexTypeName    string
	User           string
	Password       string
}

// WFSClient reads samples and hex cells from GeoServer WFS GetFeature.
type WFSClient struct {
	base     *BaseClient
	samples  string
	hexes    string
	location *time.Location
	pageSize int
}

// NewWFSClient returns client. Timestamps without a zone are read in loc.
func NewWFSClient(baseURL string, cfg WFSConfig, httpClient HTTPDoer, loc *time.Location) *WFSClient {
	return &WFSClient{
		base:     NewBaseClient("geoserver", baseURL, httpClient).WithBasicAuth(cfg.User, cfg.Password),
		samples:  cfg.SampleTypeName,
		hexes:    cfg.HexTypeName,
		location: loc,
		pageSize: pageSize,
	}
}

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID         string          `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties json.RawMessage `json:"properties"`
}

type sampleProps struct {
	NoiseLevel *float64 `json:"noise_level"`
	Time       string   `json:"time"`
}

type hexProps struct {
	HexID json.RawMessage `json:"hex_id"`
	LAeq  *float64        `json:"laeq"`
}

// ResolveCell returns the hex cell containing (lat, lng).
func (c *WFSClient) ResolveCell(ctx context.Context, lat, lng float64) (models.Cell, error) {
	f, props, err := c.hexAt(ctx, lat, lng)
	if err != nil {
		return models.Cell{}, err
	}
	id := strings.Trim(string(props.HexID), `"`)
	if id == "" || id == "null" {
		id = f.ID
	}
	return models.Cell{ID: id, Polygon: models.OuterRing(f.Geometry)}, nil
}

// UpstreamLAeq returns the hex layer's stored laeq for cellID.
func (c *WFSClient) UpstreamLAeq(ctx context.Context, cellID string) (float64, error) {
	q := c.getFeature(c.hexes, fmt.Sprintf("hex_id = '%s'", escapeCQL(cellID)))
	q.Set("maxFeatures", "1")
	fc, err := c.fetch(ctx, q)
	if err != nil {
		return 0, err
	}
	if len(fc.Features) == 0 {
		return 0, models.ErrCellNotFound
	}
	var props hexProps
	if err := json.Unmarshal(fc.Features[0].Properties, &props); err != nil || props.LAeq == nil {
		return 0, errors.New("hex feature has no laeq")
	}
	return *props.LAeq, nil
}

// Samples returns the samples in cell with from <= time <= to. Results are paged with
// startIndex until GeoServer returns a short page, so no sample in the range is dropped.
func (c *WFSClient) Samples(ctx context.Context, cell models.Cell, from, to time.Time) (laeq.Series, error) {
	filter := fmt.Sprintf("INTERSECTS(%s,%s) AND time BETWEEN '%s' AND '%s'",
		sampleGeometry, cellGeometry(cell), from.UTC().Format(cqlTimeLayout), to.UTC().Format(cqlTimeLayout))
	q := c.getFeature(c.samples, filter)
	q.Set("sortBy", "time A")
	q.Set("maxFeatures", strconv.Itoa(c.pageSize))

	var (
		out       laeq.Series
		firstSeen string
	)
	for page := 0; ; page++ {
		if page == maxPages {
			return nil, c.pagingError(fmt.Errorf("more than %d samples in range", maxPages*c.pageSize))
		}
		q.Set("startIndex", strconv.Itoa(page*c.pageSize))
		fc, err := c.fetch(ctx, q)
		if err != nil {
			return nil, err
		}
		if page > 0 && len(fc.Features) > 0 && fc.Features[0].ID != "" && fc.Features[0].ID == firstSeen {
			return nil, c.pagingError(errors.New("startIndex not honoured"))
		}
		if len(fc.Features) > 0 {
			firstSeen = fc.Features[0].ID
		}
		out = append(out, c.decodeSamples(fc.Features)...)
		if len(fc.Features) < c.pageSize {
			return out, nil
		}
	}
}

func (c *WFSClient) decodeSamples(features []feature) laeq.Series {
	out := make(laeq.Series, 0, len(features))
	for _, f := range features {
		var props sampleProps
		if err := json.Unmarshal(f.Properties, &props); err != nil {
			continue
		}
		ts, ok := c.parseTime(props.Time)
		if !ok {
			continue
		}
		level := math.NaN()
		if props.NoiseLevel != nil {
			level = *props.NoiseLevel
		}
		out = append(out, laeq.Sample{Time: ts, LevelDb: level})
	}
	return out
}

func (c *WFSClient) pagingError(err error) error {
	return &models.UpstreamError{Service: c.base.service, Code: models.CodeAPI, Err: err}
}

func (c *WFSClient) hexAt(ctx context.Context, lat, lng float64) (feature, hexProps, error) {
	q := c.getFeature(c.hexes, fmt.Sprintf("INTERSECTS(%s,POINT(%s %s))", hexGeometry, coord(lng), coord(lat)))
	q.Set("maxFeatures", "1")
	fc, err := c.fetch(ctx, q)
	if err != nil {
		return feature{}, hexProps{}, err
	}
	if len(fc.Features) == 0 {
		return feature{}, hexProps{}, models.ErrCellNotFound
	}
	var props hexProps
	_ = json.Unmarshal(fc.Features[0].Properties, &props)
	return fc.Features[0], props, nil
}

func (c *WFSClient) getFeature(typeName, cql string) url.Values {
	q := url.Values{}
	q.Set("service", "WFS")
	q.Set("version", "1.0.0")
	q.Set("request", "GetFeature")
	q.Set("typeName", typeName)
	q.Set("outputFormat", "application/json")
	q.Set("CQL_FILTER", cql)
	return q
}

func (c *WFSClient) fetch(ctx context.Context, q url.Values) (*featureCollection, error) {
	status, body, err := c.base.Get(ctx, q)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.base.statusError(status, body)
	}
	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, &models.UpstreamError{Service: c.base.service, Code: models.CodeDecode, Status: status, Err: err}
	}
	return &fc, nil
}

func (c *WFSClient) parseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range wfsTimeLayouts {
		if ts, err := time.ParseInLocation(layout, raw, c.location); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func cellGeometry(cell models.Cell) string {
	if len(cell.Polygon) >= 4 {
		parts := make([]string, len(cell.Polygon))
		for i, p := range cell.Polygon {
			parts[i] = coord(p[0]) + " " + coord(p[1])
		}
		return "POLYGON((" + strings.Join(parts, ", ") + "))"
	}
	lat, lng, ok := parseLatLng(cell.ID)
	if !ok {
		return "POINT(0 0)"
	}
	return fmt.Sprintf("POINT(%s %s)", coord(lng), coord(lat))
}

func parseLatLng(id string) (float64, float64, bool) {
	parts := strings.Split(id, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	return lat, lng, err1 == nil && err2 == nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escapeCQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
