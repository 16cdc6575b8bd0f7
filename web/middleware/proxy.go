package middleware

import (
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const trustedProxyKey = "trusted_proxy"

// TrustedProxies marks requests whose direct peer is one of proxies, given
// as IPs or CIDRs. Only marked requests may override scheme and host with
// X-Forwarded-Proto and X-Forwarded-Host.
func TrustedProxies(proxies []string) (gin.HandlerFunc, error) {
	prefixes := make([]netip.Prefix, 0, len(proxies))
	for _, p := range proxies {
		var prefix netip.Prefix
		var err error
		if strings.Contains(p, "/") {
			prefix, err = netip.ParsePrefix(p)
		} else {
			var addr netip.Addr
			addr, err = netip.ParseAddr(p)
			prefix = netip.PrefixFrom(addr, addr.BitLen())
		}
		if err != nil {
			return nil, errors.Wrapf(err, "trusted proxy %q", p)
		}
		prefixes = append(prefixes, prefix.Masked())
	}

	return func(c *gin.Context) {
		if addr, err := netip.ParseAddr(c.RemoteIP()); err == nil {
			addr = addr.Unmap()
			for _, prefix := range prefixes {
				if prefix.Contains(addr) {
					c.Set(trustedProxyKey, true)
					break
				}
			}
		}
		c.Next()
	}, nil
}

// FromTrustedProxy reports whether TrustedProxies vouched for the peer.
func FromTrustedProxy(c *gin.Context) bool {
	return c.GetBool(trustedProxyKey)
}
