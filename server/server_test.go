package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/prodpulse/knowledgesync/assistant"
	"github.com/prodpulse/knowledgesync/config"
	"github.com/prodpulse/knowledgesync/corpus"
	"github.com/prodpulse/knowledgesync/errors"
	"github.com/prodpulse/knowledgesync/internal/db"
	"github.com/prodpulse/knowledgesync/internal/mylog"
	"github.com/prodpulse/knowledgesync/internal/mytesting"
	"github.com/prodpulse/knowledgesync/productdata"
	productdatatest "github.com/prodpulse/knowledgesync/productdata/test"
	providertest "github.com/prodpulse/knowledgesync/provider/test"
	"github.com/prodpulse/knowledgesync/retriever"
	"github.com/prodpulse/knowledgesync/server"
)

type ServerTestSuite struct {
	mytesting.Suite

	fake   *providertest.Fake
	store  *productdatatest.Store
	server *httptest.Server
	DB     *gorm.DB
}

func (s *ServerTestSuite) SetupTest() {
	s.Suite.SetupTest()

	logger := mylog.NewLogger("error", "default")

	s.fake = providertest.NewFake()
	s.store = productdatatest.NewStore()
	cache := assistant.NewInMemoryCache()
	runner := assistant.NewRunner(logger)

	var err error
	s.DB, err = db.OpenDB(&config.DatabaseConfig{SqlitePath: ":memory:"})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(s.Context, s.DB))

	retrieverService := retriever.NewService(
		retriever.NewInMemoryStore(), s.fake, config.NewRetrieverConfig(), logger,
	)

	conf := config.NewSyncConfig()
	conf.PollIntervalMs = 0

	engine := assistant.NewEngine(
		s.fake,
		corpus.NewExporter(s.store, logger),
		retrieverService,
		s.store,
		cache,
		s.DB,
		conf,
		logger,
	)
	registry := assistant.NewService(engine, s.fake, cache, runner, s.DB, conf, logger)

	handler, err := server.CreateHandler(registry, retrieverService, logger)
	s.Require().NoError(err)
	s.server = httptest.NewServer(handler)
}

func (s *ServerTestSuite) TearDownTest() {
	s.server.Close()
	s.Require().NoError(db.CloseDB(s.DB))
	s.Suite.TearDownTest()
}

func (s *ServerTestSuite) getJSON(path string, out any) *http.Response {
	resp, err := http.Get(s.server.URL + path)
	s.Require().NoError(err)
	if out != nil && resp.StatusCode == http.StatusOK {
		defer resp.Body.Close()
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (s *ServerTestSuite) postJSON(path string, body, out any) *http.Response {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)

	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(raw))
	s.Require().NoError(err)
	if out != nil && resp.StatusCode == http.StatusOK {
		defer resp.Body.Close()
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (s *ServerTestSuite) TestHealth() {
	resp := s.getJSON("/health", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
}

func (s *ServerTestSuite) TestGetAssistantProvisionsOnFirstContact() {
	var body struct {
		TenantID    string `json:"tenant_id"`
		AssistantID string `json:"assistant_id"`
	}
	resp := s.getJSON("/tenants/srv-t1/assistant", &body)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().Equal("srv-t1", body.TenantID)
	s.Require().NotEmpty(body.AssistantID)
	s.Require().Equal(1, s.fake.AssistantCount())
}

func (s *ServerTestSuite) TestSyncEndpoint() {
	s.store.Add("srv-t2", productdata.RecordTypeFeature,
		productdata.Record{ID: "f-1", Title: "Dark mode", Status: "planned"},
	)

	var body struct {
		AssistantID string `json:"assistant_id"`
	}
	resp := s.postJSON("/tenants/srv-t2/sync", nil, &body)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().NotEmpty(body.AssistantID)
}

func (s *ServerTestSuite) TestSearchEndpoint() {
	s.store.Add("srv-t3", productdata.RecordTypeFeature,
		productdata.Record{ID: "f-1", Title: "Dark mode", Status: "planned"},
	)
	resp := s.postJSON("/tenants/srv-t3/sync", nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var body struct {
		Results []retriever.SearchResult `json:"results"`
		Count   int                      `json:"count"`
	}
	resp = s.postJSON("/search", map[string]any{
		"tenant_id": "srv-t3",
		"query":     "find dark mode",
	}, &body)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().Equal(len(body.Results), body.Count)
	s.Require().NotEmpty(body.Results)
}

func (s *ServerTestSuite) TestSearchRejectsMissingTenant() {
	resp := s.postJSON("/search", map[string]any{
		"query": "find dark mode",
	}, nil)
	s.Require().Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *ServerTestSuite) TestSyncMapsTransientProviderErrorTo503() {
	s.fake.FailNext["UploadFile"] = errors.Wrapf(errors.ErrProviderTransient, "rate limited")

	resp := s.postJSON("/tenants/srv-t5/sync", nil, nil)
	s.Require().Equal(http.StatusServiceUnavailable, resp.StatusCode)
}

func (s *ServerTestSuite) TestSyncMapsUnclassifiedErrorTo500() {
	s.fake.FailNext["UploadFile"] = errors.New("upstream broke")

	resp := s.postJSON("/tenants/srv-t6/sync", nil, nil)
	s.Require().Equal(http.StatusInternalServerError, resp.StatusCode)
}

func (s *ServerTestSuite) TestCacheEndpoints() {
	resp := s.getJSON("/tenants/srv-t4/cache", nil)
	s.Require().Equal(http.StatusNotFound, resp.StatusCode)

	resp = s.postJSON("/tenants/srv-t4/sync", nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var body struct {
		AssistantID string `json:"assistant_id"`
	}
	resp = s.getJSON("/tenants/srv-t4/cache", &body)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().NotEmpty(body.AssistantID)

	req, err := http.NewRequest(http.MethodDelete, s.server.URL+"/tenants/srv-t4/cache", nil)
	s.Require().NoError(err)
	deleteResp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusNoContent, deleteResp.StatusCode)

	resp = s.getJSON("/tenants/srv-t4/cache", nil)
	s.Require().Equal(http.StatusNotFound, resp.StatusCode)
}

func TestServer(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
