package config

// Resolve computes the effective configuration from the local
// configuration and the frontend section of the server response.
//
// The result starts from local with apiVersion set to serverVersion. The
// sanitized remote section is then merged according to the local
// preferRemoteConf flag:
//
//	preferRemoteConf = true:  Merge(local, remote), remote wins on conflicts
//	preferRemoteConf = false: Merge(remote, local), local wins on conflicts
//
// Gaps on either side are filled from the other. A nil remote section is
// treated as empty. Inputs are never modified.
func Resolve(local, remoteFrontend Conf, serverVersion string) Conf {
	conf := Clone(local)
	if conf == nil {
		conf = make(Conf)
	}
	conf[KeyAPIVersion] = serverVersion

	remote := SanitizeRemote(remoteFrontend)

	if Bool(conf, KeyPreferRemoteConf) {
		return Merge(conf, remote)
	}
	return Merge(remote, conf)
}
