package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/alexnetwork99/quotation-automation/internal/models"
)

// scrollPageSize bounds List; the catalog is expected to stay well below this.
const scrollPageSize = 10000

// QdrantStore implements Store against a remote Qdrant collection with cosine
// distance. Catalog item IDs are not UUIDs, so each item's point ID is a
// deterministic UUIDv5 of its catalog ID and the catalog ID itself lives in
// the payload.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dimensions int
}

// NewQdrantStore connects to Qdrant and ensures the collection exists with
// cosine distance and the given vector size. An existing collection with a
// different vector size fails fast with a DimensionMismatchError.
func NewQdrantStore(ctx context.Context, host string, port int, collection string, dimensions int) (*QdrantStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}

	s := &QdrantStore{client: client, collection: collection, dimensions: dimensions}
	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		if err := client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: &qdrant.VectorsConfig{
				Config: &qdrant.VectorsConfig_Params{
					Params: &qdrant.VectorParams{
						Size:     uint64(dimensions),
						Distance: qdrant.Distance_Cosine,
					},
				},
			},
		}); err != nil {
			return nil, fmt.Errorf("create collection: %w", err)
		}
		return s, nil
	}

	info, err := client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("get collection info: %w", err)
	}
	if params := info.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
		if params.GetSize() != uint64(dimensions) {
			return nil, &DimensionMismatchError{Got: dimensions, Want: int(params.GetSize())}
		}
	}
	return s, nil
}

// pointID derives a stable UUID point ID from a catalog item ID.
func pointID(id string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceURL, []byte("catalog-item:"+id)).String())
}

// Upsert inserts or replaces an item and its vector.
func (s *QdrantStore) Upsert(ctx context.Context, item models.CatalogItem, vector []float32) error {
	if len(vector) != s.dimensions {
		return &DimensionMismatchError{Got: len(vector), Want: s.dimensions}
	}
	now := time.Now().UTC()
	created := item.CreatedAt
	if created.IsZero() {
		created = now
	}
	payload := map[string]any{
		"id":         item.ID,
		"supplier":   item.Supplier,
		"name":       item.Name,
		"spec":       item.Spec,
		"unit":       item.Unit,
		"price":      item.Price,
		"source":     item.Source,
		"created_at": created.Unix(),
		"updated_at": now.Unix(),
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points: []*qdrant.PointStruct{{
			Id:      pointID(item.ID),
			Vectors: qdrant.NewVectors(vector...),
			Payload: qdrant.NewValueMap(payload),
		}},
	})
	if err != nil {
		return fmt.Errorf("upsert item %s: %w", item.ID, err)
	}
	return nil
}

// Delete removes an item by ID; absent IDs are a no-op.
func (s *QdrantStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelector(pointID(id)),
	})
	if err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}

// DeleteBySource removes all items from the given source tag.
func (s *QdrantStore) DeleteBySource(ctx context.Context, source string) (int, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch("source", source)},
	}
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         filter,
	})
	if err != nil {
		return 0, fmt.Errorf("count by source %s: %w", source, err)
	}
	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return 0, fmt.Errorf("delete by source %s: %w", source, err)
	}
	return int(n), nil
}

// Query returns up to k items by descending cosine similarity.
func (s *QdrantStore) Query(ctx context.Context, vector []float32, k int) ([]models.RetrievedCandidate, error) {
	if len(vector) != s.dimensions {
		return nil, &DimensionMismatchError{Got: len(vector), Want: s.dimensions}
	}
	if k <= 0 {
		return nil, nil
	}
	limit := uint64(k)
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Limit:          &limit,
		Query:          qdrant.NewQuery(vector...),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	out := make([]models.RetrievedCandidate, 0, len(resp))
	for _, r := range resp {
		out = append(out, models.RetrievedCandidate{
			Item:  itemFromPayload(r.GetPayload()),
			Score: float64(r.GetScore()),
		})
	}
	return out, nil
}

// Get returns an item by ID.
func (s *QdrantStore) Get(ctx context.Context, id string) (*models.CatalogItem, error) {
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qdrant.PointId{pointID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	if len(points) == 0 {
		return nil, &NotFoundError{ID: id}
	}
	item := itemFromPayload(points[0].GetPayload())
	return &item, nil
}

// List returns all items in the collection.
func (s *QdrantStore) List(ctx context.Context) ([]models.CatalogItem, error) {
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Limit:          qdrant.PtrOf(uint32(scrollPageSize)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("scroll: %w", err)
	}
	items := make([]models.CatalogItem, 0, len(points))
	for _, p := range points {
		items = append(items, itemFromPayload(p.GetPayload()))
	}
	return items, nil
}

// Count returns the number of stored items.
func (s *QdrantStore) Count(ctx context.Context) (int64, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{CollectionName: s.collection})
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return int64(n), nil
}

// Dimensions returns the collection's fixed embedding dimension.
func (s *QdrantStore) Dimensions() int {
	return s.dimensions
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func itemFromPayload(payload map[string]*qdrant.Value) models.CatalogItem {
	item := models.CatalogItem{
		ID:       payload["id"].GetStringValue(),
		Supplier: payload["supplier"].GetStringValue(),
		Name:     payload["name"].GetStringValue(),
		Spec:     payload["spec"].GetStringValue(),
		Unit:     payload["unit"].GetStringValue(),
		Price:    payload["price"].GetDoubleValue(),
		Source:   payload["source"].GetStringValue(),
	}
	if ts := payload["created_at"].GetIntegerValue(); ts > 0 {
		item.CreatedAt = time.Unix(ts, 0).UTC()
	}
	if ts := payload["updated_at"].GetIntegerValue(); ts > 0 {
		item.UpdatedAt = time.Unix(ts, 0).UTC()
	}
	return item
}
