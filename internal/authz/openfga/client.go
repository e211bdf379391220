package openfga

import (
	"context"
	"fmt"

	fga "github.com/openfga/go-sdk"
	"github.com/openfga/go-sdk/client"
	"github.com/openfga/go-sdk/credentials"
)

// Config holds the connection settings of an OpenFGA store.
type Config struct {
	APIURL               string
	StoreID              string
	AuthorizationModelID string

	// Client credentials. Leave ClientID empty for an unauthenticated server.
	APITokenIssuer string
	APIAudience    string
	ClientID       string
	ClientSecret   string
}

// api is the subset of the OpenFGA API the store uses, expressed in raw
// "type:id" strings.
type api interface {
	check(ctx context.Context, user, relation, object string) (bool, error)
	batchCheck(ctx context.Context, items []batchItem) (map[string]batchResult, error)
	read(ctx context.Context, user, relation, object string) (bool, error)
	write(ctx context.Context, keys []tupleKey) error
	listObjects(ctx context.Context, user, relation, objectType string) ([]string, error)
}

type tupleKey struct {
	user, relation, object string
}

type batchItem struct {
	tupleKey
	correlationID string
}

type batchResult struct {
	allowed bool
	err     string
}

// sdkAPI implements api with the OpenFGA Go SDK.
type sdkAPI struct {
	client *client.OpenFgaClient
}

func newSDKAPI(cfg Config) (*sdkAPI, error) {
	clientCfg := &client.ClientConfiguration{
		ApiUrl:               cfg.APIURL,
		StoreId:              cfg.StoreID,
		AuthorizationModelId: cfg.AuthorizationModelID,
	}
	if cfg.ClientID != "" {
		clientCfg.Credentials = &credentials.Credentials{
			Method: credentials.CredentialsMethodClientCredentials,
			Config: &credentials.Config{
				ClientCredentialsApiTokenIssuer: cfg.APITokenIssuer,
				ClientCredentialsApiAudience:    cfg.APIAudience,
				ClientCredentialsClientId:       cfg.ClientID,
				ClientCredentialsClientSecret:   cfg.ClientSecret,
			},
		}
	}

	c, err := client.NewSdkClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create openfga client: %w", err)
	}
	return &sdkAPI{client: c}, nil
}

func (a *sdkAPI) check(ctx context.Context, user, relation, object string) (bool, error) {
	resp, err := a.client.Check(ctx).Body(client.ClientCheckRequest{
		User:     user,
		Relation: relation,
		Object:   object,
	}).Execute()
	if err != nil {
		return false, err
	}
	return resp.GetAllowed(), nil
}

func (a *sdkAPI) batchCheck(ctx context.Context, items []batchItem) (map[string]batchResult, error) {
	checks := make([]client.ClientBatchCheckItem, len(items))
	for i, item := range items {
		checks[i] = client.ClientBatchCheckItem{
			User:          item.user,
			Relation:      item.relation,
			Object:        item.object,
			CorrelationId: item.correlationID,
		}
	}

	resp, err := a.client.BatchCheck(ctx).Body(client.ClientBatchCheckRequest{Checks: checks}).Execute()
	if err != nil {
		return nil, err
	}

	results := make(map[string]batchResult, len(items))
	for id, r := range resp.GetResult() {
		res := batchResult{allowed: r.GetAllowed()}
		if r.Error != nil {
			res.err = r.Error.GetMessage()
			if res.err == "" {
				res.err = "check failed"
			}
		}
		results[id] = res
	}
	return results, nil
}

func (a *sdkAPI) read(ctx context.Context, user, relation, object string) (bool, error) {
	resp, err := a.client.Read(ctx).Body(client.ClientReadRequest{
		User:     fga.PtrString(user),
		Relation: fga.PtrString(relation),
		Object:   fga.PtrString(object),
	}).Execute()
	if err != nil {
		return false, err
	}
	return len(resp.GetTuples()) > 0, nil
}

func (a *sdkAPI) write(ctx context.Context, keys []tupleKey) error {
	body := make(client.ClientWriteTuplesBody, len(keys))
	for i, k := range keys {
		body[i] = client.ClientTupleKey{User: k.user, Relation: k.relation, Object: k.object}
	}
	// Without a non-transaction option the write is a single transaction.
	_, err := a.client.WriteTuples(ctx).Body(body).Execute()
	return err
}

func (a *sdkAPI) listObjects(ctx context.Context, user, relation, objectType string) ([]string, error) {
	resp, err := a.client.ListObjects(ctx).Body(client.ClientListObjectsRequest{
		User:     user,
		Relation: relation,
		Type:     objectType,
	}).Execute()
	if err != nil {
		return nil, err
	}
	return resp.GetObjects(), nil
}
