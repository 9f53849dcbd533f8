package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Fixtures
// =============================================================================

const minimalValidSpec = `
services:
  app:
    image: nginx:latest
`

const multiServiceSpec = `
services:
  web:
    image: nginx:latest
    ports:
      - "80:80"
    depends_on:
      - api

  api:
    image: myapp:1.0
    environment:
      DB_HOST: db
    depends_on:
      - db

  db:
    image: postgres:15
    volumes:
      - pgdata:/var/lib/postgresql/data

volumes:
  pgdata:
`

const stackSpec = `
services:
  web:
    image: eword/web:2.3
    ports:
      - "8080:80"
  db:
    image: mysql:8
    restart: always
  cache:
    image: redis:7
`

const circularDepSpec = `
services:
  a:
    image: nginx:latest
    depends_on:
      - b

  b:
    image: nginx:latest
    depends_on:
      - a
`

const selfReferenceSpec = `
services:
  a:
    image: nginx:latest
    depends_on:
      - a
`

// =============================================================================
// Input Validation Tests
// =============================================================================

func TestParseComposeSpec_EmptyInput(t *testing.T) {
	_, err := ParseComposeSpec("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestParseComposeSpec_WhitespaceOnly(t *testing.T) {
	_, err := ParseComposeSpec("   \n\t  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestParseComposeSpec_InvalidYAML(t *testing.T) {
	_, err := ParseComposeSpec("services:\n  web:\n   image: [unclosed")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestParseComposeSpec_NoServices(t *testing.T) {
	_, err := ParseComposeSpec("volumes:\n  data:\n")
	require.Error(t, err)
}

// =============================================================================
// Parsing Tests
// =============================================================================

func TestParseComposeSpec_Minimal(t *testing.T) {
	spec, err := ParseComposeSpec(minimalValidSpec)
	require.NoError(t, err)

	require.Len(t, spec.Services, 1)
	assert.Equal(t, "app", spec.Services[0].Name)
	assert.Equal(t, "nginx:latest", spec.Services[0].Image)
}

func TestParseComposeSpec_MultiService(t *testing.T) {
	spec, err := ParseComposeSpec(multiServiceSpec)
	require.NoError(t, err)

	require.Len(t, spec.Services, 3)
	assert.Equal(t, []string{"web", "api", "db"}, spec.ServiceNames())

	require.Len(t, spec.Volumes, 1)
	assert.Equal(t, "pgdata", spec.Volumes[0].Name)
}

func TestParseComposeSpec_DeclaredOrderPreserved(t *testing.T) {
	spec, err := ParseComposeSpec(stackSpec)
	require.NoError(t, err)
	assert.Equal(t, []string{"web", "db", "cache"}, spec.ServiceNames())
}

func TestParseComposeSpec_Ports(t *testing.T) {
	spec, err := ParseComposeSpec(stackSpec)
	require.NoError(t, err)

	web := spec.Services[0]
	require.Len(t, web.Ports, 1)
	assert.Equal(t, uint32(80), web.Ports[0].Target)
	assert.Equal(t, uint32(8080), web.Ports[0].Published)
}

func TestParseComposeSpec_RestartPolicy(t *testing.T) {
	spec, err := ParseComposeSpec(stackSpec)
	require.NoError(t, err)
	assert.Equal(t, RestartAlways, spec.Services[1].Restart)
}

func TestParseComposeSpec_CircularDependency(t *testing.T) {
	_, err := ParseComposeSpec(circularDepSpec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircularDependency)
}

func TestParseComposeSpec_SelfReference(t *testing.T) {
	_, err := ParseComposeSpec(selfReferenceSpec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircularDependency)
}

// =============================================================================
// Service Order Tests
// =============================================================================

func TestServiceOrder(t *testing.T) {
	order, err := ServiceOrder(stackSpec)
	require.NoError(t, err)
	assert.Equal(t, []string{"web", "db", "cache"}, order)
}

func TestServiceOrder_Empty(t *testing.T) {
	_, err := ServiceOrder("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestServiceOrder_NoServices(t *testing.T) {
	_, err := ServiceOrder("volumes:\n  data:\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoServices)
}

// =============================================================================
// Image Classification Tests
// =============================================================================

func TestClassifyImageRef(t *testing.T) {
	tests := []struct {
		name     string
		ref      string
		expected ImageSource
	}{
		{"bare repo tag", "myapp:1.0", ImageSourceArchive},
		{"bare repo no tag", "redis", ImageSourceArchive},
		{"namespaced repo", "eword/web:2.3", ImageSourceArchive},
		{"explicit registry", "registry.example.com/eword/web:2.3", ImageSourceRegistry},
		{"registry with port", "localhost:5000/web:latest", ImageSourceRegistry},
		{"explicit docker hub", "docker.io/library/nginx:latest", ImageSourceRegistry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := ClassifyImageRef(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, source)
		})
	}
}

func TestClassifyImageRef_Invalid(t *testing.T) {
	_, err := ClassifyImageRef("MYAPP::bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidImageRef)
}
