// Copyright 2025 The LUCI Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bigtable

import (
	"context"
	"fmt"

	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"google.golang.org/api/option"
	gtransport "google.golang.org/api/transport/grpc"
	"google.golang.org/grpc"

	"go.chromium.org/btlite/common/errors"
)

const (
	prodAddr   = "bigtable.googleapis.com:443"
	dataScope  = "https://www.googleapis.com/auth/bigtable.data"
	adminScope = "https://www.googleapis.com/auth/cloud-platform"
)

// dataClient is the slice of the Bigtable data API this package uses.
//
// btpb.BigtableClient satisfies it; tests substitute fakes.
type dataClient interface {
	MutateRow(ctx context.Context, in *btpb.MutateRowRequest, opts ...grpc.CallOption) (*btpb.MutateRowResponse, error)
	MutateRows(ctx context.Context, in *btpb.MutateRowsRequest, opts ...grpc.CallOption) (btpb.Bigtable_MutateRowsClient, error)
	CheckAndMutateRow(ctx context.Context, in *btpb.CheckAndMutateRowRequest, opts ...grpc.CallOption) (*btpb.CheckAndMutateRowResponse, error)
	ReadModifyWriteRow(ctx context.Context, in *btpb.ReadModifyWriteRowRequest, opts ...grpc.CallOption) (*btpb.ReadModifyWriteRowResponse, error)
	SampleRowKeys(ctx context.Context, in *btpb.SampleRowKeysRequest, opts ...grpc.CallOption) (btpb.Bigtable_SampleRowKeysClient, error)
}

// Client is a connection to one Bigtable instance's data plane.
//
// A Client is safe for concurrent use and should be reused rather than
// created per operation.
type Client struct {
	conn       *grpc.ClientConn
	data       dataClient
	project    string
	instance   string
	appProfile string
}

// ClientConfig customizes NewClientWithConfig.
type ClientConfig struct {
	// AppProfile routes all of the client's requests through the named
	// replication app profile. Empty uses the instance's default profile.
	AppProfile string
}

// NewClient dials the instance's data endpoint with default configuration.
//
// Pass option.ClientOption values to override the endpoint or credentials,
// e.g. to point at an emulator.
func NewClient(ctx context.Context, project, instance string, opts ...option.ClientOption) (*Client, error) {
	return NewClientWithConfig(ctx, project, instance, ClientConfig{}, opts...)
}

// NewClientWithConfig dials the instance's data endpoint.
func NewClientWithConfig(ctx context.Context, project, instance string, config ClientConfig, opts ...option.ClientOption) (*Client, error) {
	o := append([]option.ClientOption{
		option.WithEndpoint(prodAddr),
		option.WithScopes(dataScope, adminScope),
	}, opts...)
	conn, err := gtransport.Dial(ctx, o...)
	if err != nil {
		return nil, errors.Fmt("dialing bigtable: %w", err)
	}
	return &Client{
		conn:       conn,
		data:       btpb.NewBigtableClient(conn),
		project:    project,
		instance:   instance,
		appProfile: config.AppProfile,
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) fullTableName(table string) string {
	return fmt.Sprintf("projects/%s/instances/%s/tables/%s", c.project, c.instance, table)
}
