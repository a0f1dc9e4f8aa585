package users

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second)
}

func TestFetchUsersDecodesRecords(t *testing.T) {
	c := serve(t, http.StatusOK, `[
		{"name":"Leanne Graham","username":"Bret","email":"Sincere@april.biz",
		 "address":{"city":"Gwenborough"},"company":{"name":"Romaguera-Crona"}},
		{"name":"Ervin Howell","username":"Antonette","email":"Shanna@melissa.tv"}
	]`)

	list, err := c.FetchUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, User{
		Name:     "Leanne Graham",
		Username: "Bret",
		Email:    "Sincere@april.biz",
		Company:  &Company{Name: "Romaguera-Crona"},
		Address:  &Address{City: "Gwenborough"},
	}, list[0])
	require.Nil(t, list[1].Company)
	require.Nil(t, list[1].Address)
}

func TestFetchUsersEmptyArray(t *testing.T) {
	c := serve(t, http.StatusOK, `[]`)

	list, err := c.FetchUsers(context.Background())
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestFetchUsersServerError(t *testing.T) {
	c := serve(t, http.StatusInternalServerError, `{"error":"boom"}`)

	_, err := c.FetchUsers(context.Background())
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, 500, reqErr.StatusCode)
	require.Equal(t, "Internal Server Error", reqErr.StatusText)
	require.Equal(t, "Request failed: 500 Internal Server Error", err.Error())
	require.Equal(t, "request", Kind(err))
}

func TestFetchUsersNonArrayIsFormatError(t *testing.T) {
	c := serve(t, http.StatusOK, `{"users":[]}`)

	_, err := c.FetchUsers(context.Background())
	var fmtErr *FormatError
	require.ErrorAs(t, err, &fmtErr)
	require.Equal(t, "object", fmtErr.Kind)
	require.Equal(t, "Unexpected response format.", err.Error())
}

func TestFetchUsersInvalidJSONIsTransportError(t *testing.T) {
	c := serve(t, http.StatusOK, `[{"name":`)

	_, err := c.FetchUsers(context.Background())
	var trErr *TransportError
	require.ErrorAs(t, err, &trErr)
	require.Equal(t, "parse body", trErr.Op)
	require.Equal(t, "transport", Kind(err))
}

func TestFetchUsersNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).FetchUsers(context.Background())
	var trErr *TransportError
	require.ErrorAs(t, err, &trErr)
	require.Equal(t, "fetch", trErr.Op)
	require.False(t, errors.Is(err, ErrCanceled))
}

func TestFetchUsersCanceled(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := NewClient(srv.URL, 0).FetchUsers(ctx)
	require.ErrorIs(t, err, ErrCanceled)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, "canceled", Kind(err))
}

func TestDecodeIsLenientAboutFields(t *testing.T) {
	list, err := Decode([]byte(`[
		{"name": 42, "username": null, "email": true, "company": null, "address": "nowhere"},
		"not an object",
		{"company": {}}
	]`))
	require.NoError(t, err)
	require.Len(t, list, 3)

	require.Equal(t, "42", list[0].Name)
	require.Empty(t, list[0].Username)
	require.Equal(t, "true", list[0].Email)
	require.Nil(t, list[0].Company)
	require.Nil(t, list[0].Address)

	require.Equal(t, User{}, list[1])

	require.NotNil(t, list[2].Company)
	require.Empty(t, list[2].Company.Name)
}

func TestDecodeRejectsScalars(t *testing.T) {
	for body, kind := range map[string]string{
		`"users"`: "string",
		`12`:      "number",
		`null`:    "null",
		`false`:   "boolean",
	} {
		_, err := Decode([]byte(body))
		var fmtErr *FormatError
		require.ErrorAs(t, err, &fmtErr, body)
		require.Equal(t, kind, fmtErr.Kind, body)
	}
}

func TestDecodeEmptyBody(t *testing.T) {
	_, err := Decode(nil)
	require.Equal(t, "transport", Kind(err))
}

func TestNewClientDefaultsURL(t *testing.T) {
	require.Equal(t, DefaultURL, NewClient("  ", 0).URL())
}

func TestDecodeIgnoresByteOrderMark(t *testing.T) {
	list, err := Decode([]byte("\xef\xbb\xbf[{\"name\":\"Leanne\"}]"))
	require.NoError(t, err)
	require.Equal(t, []User{{Name: "Leanne"}}, list)
}

func TestFetchUsersOversizedBody(t *testing.T) {
	body := "[" + strings.Repeat(`{},`, 3<<20) + "{}]"
	c := serve(t, http.StatusOK, body)

	_, err := c.FetchUsers(context.Background())
	var trErr *TransportError
	require.ErrorAs(t, err, &trErr)
	require.Equal(t, "read body", trErr.Op)
	require.ErrorContains(t, err, "body exceeds")
	require.Equal(t, "transport", Kind(err))
}
