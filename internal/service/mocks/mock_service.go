package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"paperbase/internal/model"
	"paperbase/internal/service"
	"paperbase/internal/storage"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, limit, offset int, folderPath string) (*service.DocumentListResult, error) {
	args := m.Called(ctx, limit, offset, folderPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentService) OpenOriginal(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, *model.Document, error) {
	args := m.Called(ctx, id)
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	var doc *model.Document
	if args.Get(2) != nil {
		doc = args.Get(2).(*model.Document)
	}
	return rc, args.Get(1).(storage.ObjectInfo), doc, args.Error(3)
}

func (m *MockDocumentService) OpenThumbnail(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, *model.Document, error) {
	args := m.Called(ctx, id)
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	var doc *model.Document
	if args.Get(2) != nil {
		doc = args.Get(2).(*model.Document)
	}
	return rc, args.Get(1).(storage.ObjectInfo), doc, args.Error(3)
}

func (m *MockDocumentService) AddTag(ctx context.Context, docID, tagID string) (*model.Document, error) {
	args := m.Called(ctx, docID, tagID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) RemoveTag(ctx context.Context, docID, tagID string) (*model.Document, error) {
	args := m.Called(ctx, docID, tagID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) StorageInfo(ctx context.Context) (*service.SystemStorageInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SystemStorageInfo), args.Error(1)
}

type MockTagService struct {
	mock.Mock
}

func (m *MockTagService) Create(ctx context.Context, name, color string) (*model.Tag, error) {
	args := m.Called(ctx, name, color)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tag), args.Error(1)
}

func (m *MockTagService) GetOrCreate(ctx context.Context, name string) (*model.Tag, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tag), args.Error(1)
}

func (m *MockTagService) Get(ctx context.Context, id string) (*model.Tag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tag), args.Error(1)
}

func (m *MockTagService) List(ctx context.Context) ([]model.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tag), args.Error(1)
}

func (m *MockTagService) Update(ctx context.Context, id, name, color string) (*model.Tag, error) {
	args := m.Called(ctx, id, name, color)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tag), args.Error(1)
}

func (m *MockTagService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) Upload(ctx context.Context, data []byte, declaredMime, filename string, opts service.UploadOptions) (*service.UploadOutcome, error) {
	args := m.Called(ctx, data, declaredMime, filename, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadOutcome), args.Error(1)
}

func (m *MockIngestService) Reprocess(ctx context.Context, id, engineID string) (*model.Document, error) {
	args := m.Called(ctx, id, engineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}
