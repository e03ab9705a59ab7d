package metrics

const Namespace = "casecache"
