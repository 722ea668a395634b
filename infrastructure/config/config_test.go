package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSettings struct {
	Base          `koanf:",squash"`
	TableName     string  `koanf:"minicourse_table_name" validate:"required"`
	UploadExpire  Seconds `koanf:"thumb_upload_expire_time" validate:"required"`
	RetrievalCap  int     `koanf:"multiple_minicourse_retrival_limit"`
	SupportSender string  `koanf:"support_sender"`
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		SettingsFileEnv, "MINICOURSE_TABLE_NAME", "THUMB_UPLOAD_EXPIRE_TIME",
		"MULTIPLE_MINICOURSE_RETRIVAL_LIMIT", "SUPPORT_SENDER", "ENVIRONMENT", "AUTH_REQUIRE_TOKEN",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

type fakeResolver map[string]string

func (f fakeResolver) Resolve(ctx context.Context, name string) (string, error) {
	v, ok := f[name]
	if !ok {
		return "", errors.New("ParameterNotFound")
	}
	return v, nil
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("MINICOURSE_TABLE_NAME", "minicourses")
	t.Setenv("THUMB_UPLOAD_EXPIRE_TIME", "300")
	t.Setenv("MULTIPLE_MINICOURSE_RETRIVAL_LIMIT", "10")
	t.Setenv("AUTH_REQUIRE_TOKEN", "true")

	s := testSettings{Base: DefaultBase("get-minicourse")}
	require.NoError(t, Load(context.Background(), &s))

	assert.Equal(t, "minicourses", s.TableName)
	assert.Equal(t, 300*time.Second, s.UploadExpire.Duration())
	assert.Equal(t, 10, s.RetrievalCap)
	assert.True(t, s.AuthRequireToken)
	assert.Equal(t, "get-minicourse", s.ServiceName)
	assert.Equal(t, "production", s.Environment)
	assert.True(t, s.IsProduction())
}

func TestLoad_MissingRequired(t *testing.T) {
	clearEnv(t)
	t.Setenv("THUMB_UPLOAD_EXPIRE_TIME", "300")

	var s testSettings
	err := Load(context.Background(), &s)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TableName")
}

func TestLoad_SettingsFileBelowEnvironment(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"minicourse_table_name: from-file\nthumb_upload_expire_time: 60\nenvironment: development\n",
	), 0o600))
	t.Setenv("MINICOURSE_TABLE_NAME", "from-env")

	var s testSettings
	require.NoError(t, Load(context.Background(), &s, WithSettingsFile(path)))

	assert.Equal(t, "from-env", s.TableName)
	assert.Equal(t, Seconds(60), s.UploadExpire)
	assert.True(t, s.IsDevelopment())
}

func TestLoad_SettingsFileNested(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"minicourse_table_name: nested-file\nlocal:\n  addr: \":9000\"\n",
	), 0o600))

	var s struct {
		TableName string `koanf:"minicourse_table_name" validate:"required"`
		Local     struct {
			Addr string `koanf:"addr"`
		} `koanf:"local"`
	}
	require.NoError(t, Load(context.Background(), &s, WithSettingsFile(path)))

	assert.Equal(t, "nested-file", s.TableName)
	assert.Equal(t, ":9000", s.Local.Addr)
}

func TestLoad_SettingsFileInvalid(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("minicourse_table_name: [unclosed\n"), 0o600))

	var s testSettings
	err := Load(context.Background(), &s, WithSettingsFile(path))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not load settings file")
}

func TestLoad_SettingsFileMissing(t *testing.T) {
	clearEnv(t)

	var s testSettings
	err := Load(context.Background(), &s, WithSettingsFile(filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestLoad_ResolvesParameters(t *testing.T) {
	clearEnv(t)
	t.Setenv("MINICOURSE_TABLE_NAME", "minicourses")
	t.Setenv("THUMB_UPLOAD_EXPIRE_TIME", "300")
	t.Setenv("SUPPORT_SENDER", "ssm:/minicourse/support-sender")

	var s testSettings
	err := Load(context.Background(), &s, WithResolver(fakeResolver{"/minicourse/support-sender": "help@example.com"}))

	require.NoError(t, err)
	assert.Equal(t, "help@example.com", s.SupportSender)
}

func TestLoad_ParameterWithoutResolver(t *testing.T) {
	clearEnv(t)
	t.Setenv("MINICOURSE_TABLE_NAME", "ssm:/minicourse/table")
	t.Setenv("THUMB_UPLOAD_EXPIRE_TIME", "300")

	var s testSettings
	require.NoError(t, Load(context.Background(), &s))
	assert.Equal(t, "ssm:/minicourse/table", s.TableName)
}

func TestLoad_UnresolvableParameter(t *testing.T) {
	clearEnv(t)
	t.Setenv("MINICOURSE_TABLE_NAME", "ssm:/minicourse/missing")
	t.Setenv("THUMB_UPLOAD_EXPIRE_TIME", "300")

	var s testSettings
	err := Load(context.Background(), &s, WithResolver(fakeResolver{}))
	assert.ErrorContains(t, err, "minicourse_table_name")
}

type fakeSSM struct {
	in *ssm.GetParameterInput
}

func (f *fakeSSM) GetParameter(ctx context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.in = in
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String("secret")}}, nil
}

func TestSSMResolver_DecryptsParameter(t *testing.T) {
	client := &fakeSSM{}

	v, err := NewSSMResolver(client).Resolve(context.Background(), "/minicourse/key")

	require.NoError(t, err)
	assert.Equal(t, "secret", v)
	assert.Equal(t, "/minicourse/key", aws.ToString(client.in.Name))
	assert.True(t, aws.ToBool(client.in.WithDecryption))
}
