// Package models holds the GORM row types backing the classification and
// anticipation stores. Domain types stay free of ORM tags; the repositories
// map between the two at their boundary.
//
//   - classification.go: client annotations, observations and the audit log
//   - anticipation.go: anticipation events keyed by the composite invoice
//     identity (cliente, prefixo, numero, parcela)
package models
