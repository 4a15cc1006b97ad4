package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/gw-book-collection/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Storage_Save(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := NewMockS3API(ctrl)
	s := NewS3Storage(client, "covers", "books/")

	client.EXPECT().
		PutObject(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			assert.Equal(t, "covers", aws.ToString(in.Bucket))
			assert.True(t, strings.HasPrefix(aws.ToString(in.Key), "books/"))
			assert.True(t, strings.HasSuffix(aws.ToString(in.Key), ".jpg"))
			assert.Equal(t, "image/jpeg", aws.ToString(in.ContentType))
			assert.Equal(t, int64(3), aws.ToInt64(in.ContentLength))
			return &s3.PutObjectOutput{}, nil
		})

	name, err := s.Save(context.Background(), models.Upload{
		Filename:    "a.jpg",
		ContentType: "image/jpeg",
		Size:        3,
		Body:        strings.NewReader("abc"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".jpg"))
	assert.False(t, strings.HasPrefix(name, "books/"))
}

func TestS3Storage_SaveRejectsWithoutCallingS3(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := NewS3Storage(NewMockS3API(ctrl), "covers", "")

	_, err := s.Save(context.Background(), models.Upload{
		ContentType: "text/plain",
		Size:        1,
		Body:        strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)

	_, err = s.Save(context.Background(), models.Upload{
		ContentType: "image/png",
		Size:        1,
		Body:        strings.NewReader(strings.Repeat("x", MaxFileSize+1)),
	})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestS3Storage_SavePutError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := NewMockS3API(ctrl)
	s := NewS3Storage(client, "covers", "")

	client.EXPECT().PutObject(gomock.Any(), gomock.Any()).Return(nil, errors.New("s3 down"))

	_, err := s.Save(context.Background(), models.Upload{
		ContentType: "image/png",
		Size:        1,
		Body:        strings.NewReader("x"),
	})
	assert.ErrorContains(t, err, "s3 down")
}

func TestS3Storage_Open(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := NewMockS3API(ctrl)
	s := NewS3Storage(client, "covers", "books/")

	client.EXPECT().
		GetObject(gomock.Any(), &s3.GetObjectInput{Bucket: aws.String("covers"), Key: aws.String("books/a.png")}).
		Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("img"))}, nil)
	client.EXPECT().
		GetObject(gomock.Any(), &s3.GetObjectInput{Bucket: aws.String("covers"), Key: aws.String("books/missing.png")}).
		Return(nil, &types.NoSuchKey{})

	rc, err := s.Open(context.Background(), "a.png")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "img", string(data))

	_, err = s.Open(context.Background(), "missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Storage_Remove(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := NewMockS3API(ctrl)
	s := NewS3Storage(client, "covers", "")

	client.EXPECT().
		DeleteObject(gomock.Any(), &s3.DeleteObjectInput{Bucket: aws.String("covers"), Key: aws.String("a.png")}).
		Return(&s3.DeleteObjectOutput{}, nil)

	assert.NoError(t, s.Remove(context.Background(), "a.png"))
	assert.ErrorIs(t, s.Remove(context.Background(), "../a.png"), ErrInvalidName)
}
