package registry

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseEtcdURL(t *testing.T) {
	u, err := url.Parse("etcd://127.0.0.1:2379?servers=127.0.0.2:2379&user=u&password=p&lease=3&group=ci&prefix=/locks&retry=2")
	assert.Nilf(t, err, "check parse url failed with %+v", err)

	cfg, opts, err := parseEtcdURL(u)
	assert.Nilf(t, err, "check parse etcd url failed with %+v", err)
	assert.Equal(t, []string{"http://127.0.0.1:2379", "http://127.0.0.2:2379"}, cfg.Endpoints, "check endpoints failed")
	assert.Equal(t, "u", cfg.Username, "check user failed")
	assert.Equal(t, "p", cfg.Password, "check password failed")

	value := options{}
	for _, opt := range opts {
		opt(&value)
	}
	value.adjust()
	assert.Equal(t, int64(3), value.leaseSeconds(), "check lease failed")
	assert.Equal(t, time.Second*2, value.retryInterval, "check retry failed")
	assert.Equal(t, "/locks/ci/127.0.0.1:8080", value.key("127.0.0.1:8080"), "check key failed")

	u, _ = url.Parse("etcd://127.0.0.1:2379?lease=abc")
	_, _, err = parseEtcdURL(u)
	assert.NotNil(t, err, "check bad lease failed")

	u, _ = url.Parse("etcd://127.0.0.1:2379?retry=abc")
	_, _, err = parseEtcdURL(u)
	assert.NotNil(t, err, "check bad retry failed")
}

func TestDefaultOptions(t *testing.T) {
	value := options{}
	value.adjust()
	assert.Equal(t, int64(10), value.leaseSeconds(), "check default lease failed")
	assert.Equal(t, time.Second*10, value.retryInterval, "check default retry failed")
	assert.Equal(t, "/buildlocks/registry/default/127.0.0.1:8080", value.key("127.0.0.1:8080"), "check default key failed")
}

func TestTTLRounded(t *testing.T) {
	value := options{}
	WithTTL(time.Millisecond * 2500)(&value)
	value.adjust()
	assert.Equal(t, int64(2), value.leaseSeconds(), "check ttl rounded failed")

	value = options{}
	WithTTL(time.Millisecond * 100)(&value)
	value.adjust()
	assert.Equal(t, int64(10), value.leaseSeconds(), "check ttl below one second failed")
}

func TestUnsupportedSchema(t *testing.T) {
	_, err := NewRegistry("consul://127.0.0.1:8500")
	assert.NotNil(t, err, "check unsupported schema failed")
}
