// Package engine turns a request path into minified HTML.
//
// A Site resolves the path against its route table, builds a RenderContext
// from freshly merged data and the live environment, executes the template
// with the registered helpers and minifies the result. Every stage is a plain
// function of its inputs; the only shared state is the route table and the
// renderer's compiled-template cache, both guarded for concurrent requests.
package engine
