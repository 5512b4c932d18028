package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arcanea-realm/arcanea/internal/registry"
)

func provider(t *testing.T, id string) registry.Provider {
	t.Helper()
	p, err := registry.Default().Provider(id)
	require.NoError(t, err)
	return p
}

func envFrom(values map[string]string) func(string) string {
	return func(k string) string { return values[k] }
}

func TestMaskCredential(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"shortkey", "••••••••"},
		{"", "••••••••"},
		{"123456789", "1234567•••6789"},
		{"sk-ant-REDACTED", "sk-ant-•••cdef"},
		{"ключ-доступа-12345", "ключ-до•••2345"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskCredential(tt.in))
		})
	}
}

func TestClaudeAdapter_Validate(t *testing.T) {
	t.Run("valid key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "GET", r.Method)
			assert.Equal(t, "/v1/models", r.URL.Path)
			assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
			assert.Equal(t, AnthropicVersion, r.Header.Get("anthropic-version"))
			assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"data":[{"id":"claude-opus-4"},{"id":"claude-sonnet-4"}]}`))
		}))
		defer server.Close()

		a := NewClaudeAdapter(provider(t, "claude"), Options{})
		a.baseURL = server.URL

		s := a.Validate(context.Background(), "sk-ant-test")
		assert.True(t, s.Validated)
		assert.Equal(t, StatusValid, s.Status)
		assert.Equal(t, "claude", s.Provider)
		assert.Equal(t, []string{"claude-opus-4", "claude-sonnet-4"}, s.Models)
		assert.Contains(t, s.Capabilities, "computer-use")
	})

	t.Run("rejected key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"type":"authentication_error"}}`))
		}))
		defer server.Close()

		a := NewClaudeAdapter(provider(t, "claude"), Options{})
		a.baseURL = server.URL

		s := a.Validate(context.Background(), "bad")
		assert.False(t, s.Validated)
		assert.Equal(t, StatusInvalid, s.Status)
		assert.Contains(t, s.Detail, "401")
	})

	t.Run("server error is unknown", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		a := NewClaudeAdapter(provider(t, "claude"), Options{})
		a.baseURL = server.URL

		s := a.Validate(context.Background(), "k")
		assert.False(t, s.Validated)
		assert.Equal(t, StatusUnknown, s.Status)
	})

	t.Run("timeout is unknown", func(t *testing.T) {
		done := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-done:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(done)

		a := NewClaudeAdapter(provider(t, "claude"), Options{Timeout: 50 * time.Millisecond})
		a.baseURL = server.URL

		s := a.Validate(context.Background(), "k")
		assert.False(t, s.Validated)
		assert.Equal(t, StatusUnknown, s.Status)
	})

	t.Run("network error is unknown", func(t *testing.T) {
		a := NewClaudeAdapter(provider(t, "claude"), Options{})
		a.baseURL = "http://127.0.0.1:1"

		s := a.Validate(context.Background(), "k")
		assert.False(t, s.Validated)
		assert.Equal(t, StatusUnknown, s.Status)
		assert.NotEmpty(t, s.Detail)
	})
}

func TestClaudeAdapter_DetectFromEnv(t *testing.T) {
	a := NewClaudeAdapter(provider(t, "claude"), Options{Getenv: envFrom(nil)})
	assert.Nil(t, a.DetectFromEnv(context.Background()))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	a = NewClaudeAdapter(provider(t, "claude"), Options{Getenv: envFrom(map[string]string{"ANTHROPIC_API_KEY": "sk-env"})})
	a.baseURL = server.URL

	s := a.DetectFromEnv(context.Background())
	require.NotNil(t, s)
	assert.True(t, s.Validated)
	assert.Equal(t, "ANTHROPIC_API_KEY", s.Source)
}

func TestOpenAIAdapter_Validate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var b strings.Builder
		b.WriteString(`{"data":[{"id":"whisper-1"},{"id":"dall-e-3"}`)
		for i := 0; i < 12; i++ {
			b.WriteString(`,{"id":"gpt-` + string(rune('a'+i)) + `"}`)
		}
		b.WriteString(`]}`)
		w.Write([]byte(b.String()))
	}))
	defer server.Close()

	a := NewOpenAIAdapter(provider(t, "openai"), Options{})
	a.baseURL = server.URL

	s := a.Validate(context.Background(), "sk-test")
	assert.True(t, s.Validated)
	assert.Len(t, s.Models, 10)
	for _, m := range s.Models {
		assert.True(t, strings.HasPrefix(m, "gpt"), m)
	}
	assert.Equal(t, []string{"chat", "vision", "tools", "images"}, s.Capabilities)
}

func TestCopilotAdapter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer ghp_good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"login":"octocat","id":1}`))
	}))
	defer server.Close()

	t.Run("token", func(t *testing.T) {
		a := NewCopilotAdapter(provider(t, "copilot"), Options{}, nil)
		a.baseURL = server.URL

		s := a.Validate(context.Background(), "ghp_good")
		assert.True(t, s.Validated)
		assert.Equal(t, "octocat", s.Account)

		s = a.Validate(context.Background(), "ghp_bad")
		assert.Equal(t, StatusInvalid, s.Status)
	})

	t.Run("gh fallback logged in", func(t *testing.T) {
		run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
			assert.Equal(t, "gh", name)
			assert.Equal(t, []string{"auth", "status"}, args)
			return []byte("github.com\n  ✓ Logged in to github.com account monalisa (keyring)\n"), nil
		}
		a := NewCopilotAdapter(provider(t, "copilot"), Options{Getenv: envFrom(nil)}, run)

		s := a.DetectFromEnv(context.Background())
		require.NotNil(t, s)
		assert.True(t, s.Validated)
		assert.Equal(t, "monalisa", s.Account)
		assert.Equal(t, "gh", s.Source)
	})

	t.Run("gh fallback logged out", func(t *testing.T) {
		run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte("You are not logged into any GitHub hosts."), errors.New("exit status 1")
		}
		a := NewCopilotAdapter(provider(t, "copilot"), Options{Getenv: envFrom(nil)}, run)
		assert.Nil(t, a.DetectFromEnv(context.Background()))
	})

	t.Run("env token wins over gh", func(t *testing.T) {
		run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
			t.Fatal("gh must not run when a token is set")
			return nil, nil
		}
		a := NewCopilotAdapter(provider(t, "copilot"), Options{Getenv: envFrom(map[string]string{"GH_TOKEN": "ghp_good"})}, run)
		a.baseURL = server.URL

		s := a.DetectFromEnv(context.Background())
		require.NotNil(t, s)
		assert.Equal(t, "GH_TOKEN", s.Source)
		assert.Equal(t, "octocat", s.Account)
	})
}

func TestGeminiAdapter_Validate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("x-goog-api-key") != "AIza-good" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`))
			return
		}
		w.Write([]byte(`{"models":[{"name":"models/gemini-2.0-flash"},{"name":"models/gemini-1.5-pro"}]}`))
	}))
	defer server.Close()

	a := NewGeminiAdapter(provider(t, "gemini"), Options{})
	a.baseURL = server.URL

	s := a.Validate(context.Background(), "AIza-good")
	assert.True(t, s.Validated, s.Detail)
	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-1.5-pro"}, s.Models)

	s = a.Validate(context.Background(), "AIza-bad")
	assert.False(t, s.Validated)
	assert.Equal(t, StatusInvalid, s.Status)

	s = a.Validate(context.Background(), "")
	assert.False(t, s.Validated)
}

// MockSTSClient is a mock implementation of STSClient
type MockSTSClient struct {
	mock.Mock
}

func (m *MockSTSClient) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sts.GetCallerIdentityOutput), args.Error(1)
}

func TestAmazonQAdapter_Validate(t *testing.T) {
	newAdapter := func(client STSClient, got *aws.Credentials) *AmazonQAdapter {
		a := NewAmazonQAdapter(provider(t, "amazonq"), Options{}, "")
		a.newClient = func(ctx context.Context, creds aws.Credentials) (STSClient, error) {
			if got != nil {
				*got = creds
			}
			return client, nil
		}
		return a
	}

	t.Run("valid", func(t *testing.T) {
		client := new(MockSTSClient)
		client.On("GetCallerIdentity", mock.Anything, mock.Anything).Return(&sts.GetCallerIdentityOutput{
			Arn:     aws.String("arn:aws:iam::123456789012:user/dev"),
			Account: aws.String("123456789012"),
		}, nil)

		var creds aws.Credentials
		s := newAdapter(client, &creds).Validate(context.Background(), "AKIA:secret:token")
		assert.True(t, s.Validated)
		assert.Equal(t, "arn:aws:iam::123456789012:user/dev", s.Account)
		assert.Equal(t, "AKIA", creds.AccessKeyID)
		assert.Equal(t, "secret", creds.SecretAccessKey)
		assert.Equal(t, "token", creds.SessionToken)
		client.AssertExpectations(t)
	})

	t.Run("rejected", func(t *testing.T) {
		client := new(MockSTSClient)
		client.On("GetCallerIdentity", mock.Anything, mock.Anything).Return(nil, errors.New("InvalidClientTokenId"))

		s := newAdapter(client, nil).Validate(context.Background(), "AKIA:secret")
		assert.False(t, s.Validated)
		assert.Contains(t, s.Detail, "InvalidClientTokenId")
	})

	t.Run("malformed credential", func(t *testing.T) {
		client := new(MockSTSClient)
		s := newAdapter(client, nil).Validate(context.Background(), "just-a-key")
		assert.False(t, s.Validated)
		assert.Equal(t, StatusInvalid, s.Status)
		client.AssertNotCalled(t, "GetCallerIdentity", mock.Anything, mock.Anything)
	})

	t.Run("detect joins both env vars", func(t *testing.T) {
		client := new(MockSTSClient)
		client.On("GetCallerIdentity", mock.Anything, mock.Anything).Return(&sts.GetCallerIdentityOutput{Arn: aws.String("arn")}, nil)

		a := newAdapter(client, nil)
		a.opts.Getenv = envFrom(map[string]string{"AWS_ACCESS_KEY_ID": "AKIA"})
		assert.Nil(t, a.DetectFromEnv(context.Background()))

		a.opts.Getenv = envFrom(map[string]string{"AWS_ACCESS_KEY_ID": "AKIA", "AWS_SECRET_ACCESS_KEY": "s"})
		s := a.DetectFromEnv(context.Background())
		require.NotNil(t, s)
		assert.True(t, s.Validated)
		assert.Equal(t, "AWS_ACCESS_KEY_ID+AWS_SECRET_ACCESS_KEY", s.Source)
	})
}

func TestParseAWSCredential(t *testing.T) {
	_, err := ParseAWSCredential(":secret")
	assert.Error(t, err)
	_, err = ParseAWSCredential("id:")
	assert.Error(t, err)

	creds, err := ParseAWSCredential("id:secret")
	require.NoError(t, err)
	assert.Empty(t, creds.SessionToken)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(registry.Default(), Options{Getenv: envFrom(nil)}, WithCommandRunner(nil))

	adapters := r.Adapters()
	ids := make([]string, len(adapters))
	for i, a := range adapters {
		ids[i] = a.ID()
		assert.True(t, strings.HasPrefix(a.SetupURL(), "https://"), a.ID())
		assert.NotEmpty(t, a.DisplayName())
	}
	assert.Equal(t, []string{"claude", "openai", "gemini", "copilot", "cursor", "amazonq"}, ids)

	tests := []struct {
		name string
		want any
	}{
		{"claude", &ClaudeAdapter{}},
		{"chatgpt", &OpenAIAdapter{}},
		{"google", &GeminiAdapter{}},
		{"github", &CopilotAdapter{}},
		{"opencode", &LocalAdapter{}},
		{"aws", &AmazonQAdapter{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := r.Adapter(tt.name)
			require.NoError(t, err)
			assert.IsType(t, tt.want, a)
		})
	}

	_, err := r.Adapter("bard")
	var unknown *registry.UnknownProviderError
	assert.ErrorAs(t, err, &unknown)

	a, ok := r.AdapterByEnvVar("GOOGLE_GENERATIVE_AI_API_KEY")
	require.True(t, ok)
	assert.Equal(t, "gemini", a.ID())
	_, ok = r.AdapterByEnvVar("NONEXISTENT_API_KEY_XYZ")
	assert.False(t, ok)
}

func TestNewAdapter_FollowsAuthMethod(t *testing.T) {
	p := provider(t, "cursor")
	p.Auth = "openai"
	assert.IsType(t, &OpenAIAdapter{}, newAdapter(p, Options{}, registryConfig{}))

	p.Auth = "unknown"
	assert.IsType(t, &LocalAdapter{}, newAdapter(p, Options{}, registryConfig{}))
}

func TestLocalAdapter(t *testing.T) {
	a := NewLocalAdapter(provider(t, "cursor"), Options{})
	assert.Empty(t, a.EnvVarNames())

	s := a.DetectFromEnv(context.Background())
	require.NotNil(t, s)
	assert.True(t, s.Validated)
	assert.Equal(t, []string{"local"}, s.Models)
	assert.Equal(t, []string{"chat", "plugins", "hooks"}, s.Capabilities)
}
