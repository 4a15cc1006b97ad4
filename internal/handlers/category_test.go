package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-book-collection/internal/models"
	"github.com/sbilibin2017/gw-book-collection/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestListCategoriesHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockCategoryLister(ctrl)
	id := uuid.New()
	svc.EXPECT().List(gomock.Any()).Return([]models.CategoryWithCount{
		{CategoryDB: models.CategoryDB{ID: id, Name: "Fantasy"}, BookCount: 3},
	}, nil)

	rr := httptest.NewRecorder()
	NewListCategoriesHandler(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/categories", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"book_count":3`)
	assert.Contains(t, rr.Body.String(), `"name":"Fantasy"`)

	svc.EXPECT().List(gomock.Any()).Return(nil, errors.New("db down"))
	rr = httptest.NewRecorder()
	NewListCategoriesHandler(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/categories", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestGetCategoryHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockCategoryGetter(ctrl)
	handler := NewGetCategoryHandler(svc)
	id := uuid.New()

	svc.EXPECT().Get(gomock.Any(), id).Return(nil, services.ErrCategoryNotFound)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", id.String()))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, withParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "7"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateCategoryHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockCategoryCreator(ctrl)
	handler := NewCreateCategoryHandler(svc)

	tests := []struct {
		name         string
		body         string
		mockSetup    func()
		expectedCode int
	}{
		{
			name: "created",
			body: `{"name":"Fantasy","description":"Dragons"}`,
			mockSetup: func() {
				svc.EXPECT().Create(gomock.Any(), "Fantasy", "Dragons").
					Return(&models.CategoryDB{ID: uuid.New(), Name: "Fantasy"}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "without description",
			body: `{"name":"Poetry"}`,
			mockSetup: func() {
				svc.EXPECT().Create(gomock.Any(), "Poetry", "").
					Return(&models.CategoryDB{ID: uuid.New(), Name: "Poetry"}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "duplicate",
			body: `{"name":"Fantasy"}`,
			mockSetup: func() {
				svc.EXPECT().Create(gomock.Any(), "Fantasy", "").Return(nil, services.ErrCategoryAlreadyExists)
			},
			expectedCode: http.StatusBadRequest,
		},
		{name: "missing name", body: `{"description":"x"}`, expectedCode: http.StatusBadRequest},
		{name: "bad json", body: `[`, expectedCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mockSetup != nil {
				tt.mockSetup()
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(tt.body)))
			assert.Equal(t, tt.expectedCode, rr.Code)
		})
	}
}

func TestUpdateCategoryHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockCategoryUpdater(ctrl)
	handler := NewUpdateCategoryHandler(svc)
	id := uuid.New()

	svc.EXPECT().Update(gomock.Any(), id, "Sci-Fi", nil).Return(&models.CategoryDB{ID: id, Name: "Sci-Fi"}, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withParam(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"name":"Sci-Fi"}`)), "id", id.String()))
	assert.Equal(t, http.StatusOK, rr.Code)

	desc := "Space"
	svc.EXPECT().Update(gomock.Any(), id, "Sci-Fi", &desc).Return(nil, services.ErrCategoryNotFound)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, withParam(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"name":"Sci-Fi","description":"Space"}`)), "id", id.String()))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteCategoryHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockCategoryDeleter(ctrl)
	handler := NewDeleteCategoryHandler(svc)
	id := uuid.New()

	svc.EXPECT().Delete(gomock.Any(), id).Return(nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withParam(httptest.NewRequest(http.MethodDelete, "/", nil), "id", id.String()))
	assert.Equal(t, http.StatusOK, rr.Code)

	svc.EXPECT().Delete(gomock.Any(), id).Return(services.ErrCategoryNotFound)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, withParam(httptest.NewRequest(http.MethodDelete, "/", nil), "id", id.String()))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
