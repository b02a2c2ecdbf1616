package store

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"planboard/internal/model"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"
)

// tableEntity is one row: PartitionKey is the entity kind, RowKey its id. The full
// entity is kept as JSON in Payload; OwnerID and Archived are duplicated for filters.
type tableEntity struct {
	aztables.Entity
	OwnerID     string `json:"OwnerID"`
	Archived    bool   `json:"Archived"`
	CreatedAtMs int64  `json:"CreatedAtMs"`
	Payload     string `json:"Payload"`
}

type tableRecords struct {
	client *aztables.Client
}

// OpenTables connects to an Azure Tables (or Azurite) account and ensures the table exists.
func OpenTables(ctx context.Context, connStr, table string, opts ...Option) (*Store, error) {
	clientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: 15 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &clientOptions)
	if err != nil {
		return nil, err
	}
	c := svc.NewClient(table)
	if _, err := c.CreateTable(ctx, nil); err != nil {
		var respErr *azcore.ResponseError
		if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
			return nil, err
		}
	}
	return newStore(&tableRecords{client: c}, opts...), nil
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

// odataQuote escapes a string literal for an OData filter.
func odataQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func toTableEntity(e model.Entity) (tableEntity, error) {
	raw, err := sonic.ConfigStd.MarshalToString(e)
	if err != nil {
		return tableEntity{}, err
	}
	return tableEntity{
		Entity:      aztables.Entity{PartitionKey: string(e.Kind), RowKey: e.ID},
		OwnerID:     e.OwnerID,
		Archived:    e.Archived,
		CreatedAtMs: e.CreatedAt.UnixMilli(),
		Payload:     raw,
	}, nil
}

func fromTableEntity(data []byte) (model.Entity, error) {
	var ent tableEntity
	if err := sonic.Unmarshal(data, &ent); err != nil {
		return model.Entity{}, err
	}
	return decodeEntity(ent.Payload)
}

func (r *tableRecords) load(ctx context.Context, kind model.Kind, id string) (model.Entity, error) {
	resp, err := r.client.GetEntity(ctx, string(kind), id, nil)
	if err != nil {
		if isNotFound(err) {
			return model.Entity{}, NotFoundError{Kind: string(kind), ID: id}
		}
		return model.Entity{}, err
	}
	return fromTableEntity(resp.Value)
}

func (r *tableRecords) scan(ctx context.Context, kind model.Kind, ownerID string) ([]model.Entity, error) {
	filter := "PartitionKey eq " + odataQuote(string(kind)) + " and OwnerID eq " + odataQuote(ownerID)
	pager := r.client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	var out []model.Entity
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			e, err := fromTableEntity(raw)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *tableRecords) insert(ctx context.Context, e model.Entity) error {
	ent, err := toTableEntity(e)
	if err != nil {
		return err
	}
	payload, err := sonic.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = r.client.AddEntity(ctx, payload, nil)
	return err
}

func (r *tableRecords) save(ctx context.Context, e model.Entity) error {
	ent, err := toTableEntity(e)
	if err != nil {
		return err
	}
	payload, err := sonic.Marshal(ent)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = r.client.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	if isNotFound(err) {
		return NotFoundError{Kind: string(e.Kind), ID: e.ID}
	}
	return err
}

const maxUpdateAttempts = 5

// update is an optimistic read-modify-write: the save carries the ETag of the read and
// starts over when another writer got there first.
func (r *tableRecords) update(ctx context.Context, kind model.Kind, id string, fn func(*model.Entity) error) (model.Entity, error) {
	for attempt := 1; ; attempt++ {
		resp, err := r.client.GetEntity(ctx, string(kind), id, nil)
		if err != nil {
			if isNotFound(err) {
				return model.Entity{}, NotFoundError{Kind: string(kind), ID: id}
			}
			return model.Entity{}, err
		}
		e, err := fromTableEntity(resp.Value)
		if err != nil {
			return model.Entity{}, err
		}
		if err := fn(&e); err != nil {
			return model.Entity{}, err
		}
		ent, err := toTableEntity(e)
		if err != nil {
			return model.Entity{}, err
		}
		payload, err := sonic.Marshal(ent)
		if err != nil {
			return model.Entity{}, err
		}
		etag := resp.ETag
		_, err = r.client.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &etag, UpdateMode: aztables.UpdateModeReplace})
		switch {
		case err == nil:
			return e, nil
		case isPreconditionFailed(err) && attempt < maxUpdateAttempts:
			continue
		case isNotFound(err):
			return model.Entity{}, NotFoundError{Kind: string(kind), ID: id}
		default:
			return model.Entity{}, err
		}
	}
}

func isPreconditionFailed(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusPreconditionFailed
}

func (r *tableRecords) remove(ctx context.Context, kind model.Kind, id string) error {
	match := azcore.ETagAny
	_, err := r.client.DeleteEntity(ctx, string(kind), id, &aztables.DeleteEntityOptions{IfMatch: &match})
	if isNotFound(err) {
		return NotFoundError{Kind: string(kind), ID: id}
	}
	return err
}

func (r *tableRecords) close() error { return nil }
