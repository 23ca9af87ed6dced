// Package ordersync contains the OrderSync bounded context.
// This context owns the background synchronization of storefront orders
// into local storage.
//
// Key concepts:
//   - SyncJob: Aggregate tracking one synchronization run for a tenant
//   - OrderRecord: Value object holding a normalized storefront order
//   - StoreConnection: Credentials and sync bookkeeping for a tenant's shop
//   - PageFetcher: Port for pulling one page of orders from the storefront API
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package ordersync
