// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package blockstoremock is a hand-maintained go.uber.org/mock mock of
// blockstore.Store, in the shape mockgen would generate. Kept hand-written
// (rather than running mockgen, which this repo's build does not invoke)
// because the Store interface is small and stable; regenerate with:
//
//	mockgen -package blockstoremock -destination store_mock.go \
//	    github.com/luxfi/vaultfs/blockstore Store
package blockstoremock

import (
	"context"
	"reflect"

	"go.uber.org/mock/gomock"

	vcid "github.com/luxfi/vaultfs/cid"
)

// MockStore mocks blockstore.Store.
type MockStore struct {
	ctrl     *gomock.Controller
	recorder *MockStoreMockRecorder
}

// MockStoreMockRecorder is the mock recorder for MockStore.
type MockStoreMockRecorder struct {
	mock *MockStore
}

// NewMockStore returns a new mock controlled by ctrl.
func NewMockStore(ctrl *gomock.Controller) *MockStore {
	mock := &MockStore{ctrl: ctrl}
	mock.recorder = &MockStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected calls.
func (m *MockStore) EXPECT() *MockStoreMockRecorder { return m.recorder }

func (m *MockStore) Has(ctx context.Context, id vcid.Cid) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Has", ctx, id)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockStoreMockRecorder) Has(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Has", reflect.TypeOf((*MockStore)(nil).Has), ctx, id)
}

func (m *MockStore) GetBlock(ctx context.Context, id vcid.Cid) ([]byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetBlock", ctx, id)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockStoreMockRecorder) GetBlock(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetBlock", reflect.TypeOf((*MockStore)(nil).GetBlock), ctx, id)
}

func (m *MockStore) PutBlock(ctx context.Context, codec uint64, data []byte) (vcid.Cid, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PutBlock", ctx, codec, data)
	ret0, _ := ret[0].(vcid.Cid)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockStoreMockRecorder) PutBlock(ctx, codec, data interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PutBlock", reflect.TypeOf((*MockStore)(nil).PutBlock), ctx, codec, data)
}

func (m *MockStore) PutSerializable(ctx context.Context, v interface{}) (vcid.Cid, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PutSerializable", ctx, v)
	ret0, _ := ret[0].(vcid.Cid)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockStoreMockRecorder) PutSerializable(ctx, v interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PutSerializable", reflect.TypeOf((*MockStore)(nil).PutSerializable), ctx, v)
}

func (m *MockStore) GetDeserializable(ctx context.Context, id vcid.Cid, v interface{}) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetDeserializable", ctx, id, v)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockStoreMockRecorder) GetDeserializable(ctx, id, v interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetDeserializable", reflect.TypeOf((*MockStore)(nil).GetDeserializable), ctx, id, v)
}

func (m *MockStore) Close() error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Close")
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockStoreMockRecorder) Close() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Close", reflect.TypeOf((*MockStore)(nil).Close))
}
