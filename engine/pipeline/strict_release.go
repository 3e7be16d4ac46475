//go:build !oxydebug

package pipeline

const strictContractsDefault = false
