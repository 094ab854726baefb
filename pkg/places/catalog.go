package places

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/lintang-b-s/navguide/pkg/util"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Place is a resolvable place id.
type Place struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Coordinate da.Coordinate `json:"coordinate"`
}

type placeConfig struct {
	ID    string  `mapstructure:"id"`
	Title string  `mapstructure:"title"`
	Lat   float64 `mapstructure:"lat"`
	Lon   float64 `mapstructure:"lon"`
}

// Catalog maps place ids to coordinates. Safe for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	places map[string]Place
	log    *zap.Logger
}

func NewCatalog(log *zap.Logger) *Catalog {
	return &Catalog{
		places: make(map[string]Place),
		log:    log,
	}
}

func (c *Catalog) Add(p Place) error {
	if !da.IsSupportedPlaceID(p.ID) {
		return fmt.Errorf("%w: %s", da.ErrUnsupportedPlaceID, p.ID)
	}
	if !p.Coordinate.IsValid() {
		return fmt.Errorf("%w: place %s at %s", da.ErrInvalidCoordinate, p.ID, p.Coordinate)
	}
	c.mu.Lock()
	c.places[p.ID] = p
	c.mu.Unlock()
	return nil
}

func (c *Catalog) Resolve(placeID string) (Place, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.places[placeID]
	return p, ok
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.places)
}

// All returns every place sorted by id.
func (c *Catalog) All() []Place {
	c.mu.RLock()
	out := make([]Place, 0, len(c.places))
	for _, p := range c.places {
		out = append(out, p)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadFromViper adds the places listed under key, e.g.
//
//	places:
//	  - id: ChIJj61dQgK6j4AR4GeTYWZsKWw
//	    title: Googleplex
//	    lat: 37.422
//	    lon: -122.084
func (c *Catalog) LoadFromViper(v *viper.Viper, key string) (int, error) {
	var entries []placeConfig
	if err := v.UnmarshalKey(key, &entries); err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	for _, e := range entries {
		err := c.Add(Place{
			ID:         e.ID,
			Title:      e.Title,
			Coordinate: da.NewCoordinate(e.Lat, e.Lon),
		})
		if err != nil {
			return 0, err
		}
	}
	c.log.Info("loaded places from config", zap.Int("count", len(entries)))
	return len(entries), nil
}

// LoadOSM adds every named node of an openstreetmap pbf extract as place osm:node:<id>.
func (c *Catalog) LoadOSM(ctx context.Context, mapFile string) (int, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := osmpbf.New(ctx, f, 1)
	defer scanner.Close()
	scanner.SkipWays = true
	scanner.SkipRelations = true

	count := 0
	for scanner.Scan() {
		if util.StopConcurrentOperation(ctx) {
			return count, ctx.Err()
		}
		node, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		name := node.Tags.Find("name")
		if name == "" {
			continue
		}
		err := c.Add(Place{
			ID:         osmNodePlaceID(node.ID),
			Title:      name,
			Coordinate: da.NewCoordinate(node.Lat, node.Lon),
		})
		if err != nil {
			c.log.Debug("skipping osm node", zap.Int64("id", int64(node.ID)), zap.Error(err))
			continue
		}
		count++
		if count%50000 == 0 {
			c.log.Sugar().Infof("loading openstreetmap places: %d...", count)
		}
	}
	if err := scanner.Err(); err != nil {
		return count, err
	}
	c.log.Info("loaded places from openstreetmap", zap.String("file", mapFile), zap.Int("count", count))
	return count, nil
}

func osmNodePlaceID(id osm.NodeID) string {
	return "osm:node:" + strconv.FormatInt(int64(id), 10)
}
