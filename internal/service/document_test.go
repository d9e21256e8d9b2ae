package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"paperbase/internal/model"
	"paperbase/internal/repository"
	repoMocks "paperbase/internal/repository/mocks"
	"paperbase/internal/search"
	storeMocks "paperbase/internal/storage/mocks"
)

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mRepo *repoMocks.MockDocumentRepository)
		wantKind   model.Kind
	}{
		{
			name: "found",
			id:   "doc-1",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").
					Return(&model.Document{ID: "doc-1"}, nil)
			},
		},
		{
			name: "not found maps to structured error",
			id:   "missing",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)
			},
			wantKind: model.KindNotFound,
		},
		{
			name:       "empty id rejected",
			id:         "",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {},
			wantKind:   model.KindInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			tt.setupMocks(mRepo)
			svc := NewDocumentService(new(storeMocks.MockStorage), mRepo, new(repoMocks.MockTagRepository), search.NewIndex())

			doc, err := svc.Get(ctx, tt.id)

			if tt.wantKind != "" {
				assert.True(t, model.IsKind(err, tt.wantKind))
				assert.Nil(t, doc)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.id, doc.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)

	mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0, FolderPath: "/invoices"}).
		Return(&repository.PageResult[model.Document]{
			Items: []model.Document{{ID: "doc-1"}},
			Total: 1,
		}, nil)

	svc := NewDocumentService(new(storeMocks.MockStorage), mRepo, new(repoMocks.MockTagRepository), search.NewIndex())

	// Zero limit falls back to the default page size; the folder path is
	// normalized before it reaches the repository.
	res, err := svc.List(ctx, 0, -5, "invoices/")

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	mRepo.AssertExpectations(t)
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	doc := &model.Document{ID: "doc-1", StorageKey: "documents/doc-1.png", ThumbnailKey: "thumbnails/doc-1.png"}

	tests := []struct {
		name       string
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository)
		wantErr    bool
	}{
		{
			name: "blobs removed before record",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
				mStore.On("Delete", ctx, "documents/doc-1.png").Return(nil)
				mStore.On("Delete", ctx, "thumbnails/doc-1.png").Return(nil)
				mRepo.On("Delete", ctx, "doc-1").Return(nil)
			},
		},
		{
			name: "blob deletion failure keeps record",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
				mStore.On("Delete", ctx, "documents/doc-1.png").
					Return(errors.New("backend down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			tt.setupMocks(mStore, mRepo)

			index := search.NewIndex()
			index.Upsert(doc)
			svc := NewDocumentService(mStore, mRepo, new(repoMocks.MockTagRepository), index)

			err := svc.Delete(ctx, "doc-1")

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, 1, index.Len())
				mRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 0, index.Len())
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_AddTag(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	mTags := new(repoMocks.MockTagRepository)

	doc := &model.Document{ID: "doc-1", Tags: []model.Tag{}}
	tag := &model.Tag{ID: "tag-1", Name: "invoices", Color: "#808080"}

	mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
	mTags.On("FindByID", ctx, "tag-1").Return(tag, nil)
	mRepo.On("Update", ctx, mock.MatchedBy(func(d *model.Document) bool {
		return d.HasTag("tag-1")
	})).Return(doc, nil)

	index := search.NewIndex()
	svc := NewDocumentService(new(storeMocks.MockStorage), mRepo, mTags, index)

	_, err := svc.AddTag(ctx, "doc-1", "tag-1")

	assert.NoError(t, err)
	assert.Equal(t, 1, index.Len())
	mRepo.AssertExpectations(t)
	mTags.AssertExpectations(t)
}

func TestDocumentService_RemoveTag_NotAssociated(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)

	mRepo.On("FindByID", ctx, "doc-1").
		Return(&model.Document{ID: "doc-1", Tags: []model.Tag{}}, nil)

	svc := NewDocumentService(new(storeMocks.MockStorage), mRepo, new(repoMocks.MockTagRepository), search.NewIndex())

	_, err := svc.RemoveTag(ctx, "doc-1", "tag-1")

	assert.True(t, model.IsKind(err, model.KindNotFound))
}
