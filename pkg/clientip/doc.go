// Package clientip resolves the address of the client behind the proxies
// that front the app (Cloudflare, a load balancer, Shopify's app proxy).
//
// Headers are tried in order and the first valid address wins:
//
//  1. CF-Connecting-IP
//  2. X-Forwarded-For (first valid entry)
//  3. X-Real-IP
//  4. RemoteAddr
//
// Middleware stores the result in the request context and LoggerExtractor
// adds it to log records as client_ip.
package clientip
