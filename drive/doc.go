// Package drive resolves cloud-drive file and folder references into leaf
// files and downloads their content.
//
// A Resolver walks folders depth-first through a Client, paging each
// listing until it is exhausted. Failures are isolated per reference and
// per folder branch: they come back as Entry values carrying an error,
// and resolution of the remaining siblings continues.
//
// GoogleClient implements Client with the Google Drive v3 API using a
// caller supplied access token.
package drive
