package mocks

import (
	"net/http"

	"github.com/stretchr/testify/mock"
)

type Requestor struct {
	mock.Mock
}

func (m *Requestor) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*http.Response)
	return resp, args.Error(1)
}
